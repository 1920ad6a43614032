package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/config"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/repository"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/adapters/alert"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/adapters/mail"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/adapters/render"
	pg "github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/db/postgres"
	ingress "github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/http"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/logging"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/memstore"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/metrics"
	red "github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/redis"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/sched"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/web"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/worker"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop providers, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()

	// ---- Job store (+ optional redis snapshot restore) ----
	store := memstore.NewJobStore()

	var snapSink sched.SnapshotSink
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		snap := red.NewSnapshotStore(redisClient, cfg.Redis.SnapshotKey)
		if recs, err := snap.Load(ctx); err != nil {
			logger.Error().Err(err).Msg("snapshot restore failed; starting empty")
		} else if len(recs) > 0 {
			store.Replace(recs)
			logger.Info().Int("jobs", len(recs)).Msg("job table restored from snapshot")
		}
		snapSink = snap
	}

	// ---- Optional durable archive ----
	var archive repository.JobArchive
	if cfg.Database.URL != "" {
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		archive = pg.NewJobArchive(pool)
	}

	// ---- Render providers ----
	var providers []adapter.RenderProvider
	if cfg.Runtime.Dev {
		providers = []adapter.RenderProvider{
			render.NewNoopAdapter(model.ProviderPhoto),
			render.NewNoopAdapter(model.ProviderAvatar),
		}
		logger.Info().Msg("render providers: noop (dev)")
	} else {
		providers = []adapter.RenderProvider{
			render.NewDIDAdapter(cfg.Providers.DID.APIKey, cfg.Providers.DID.BaseURL),
			render.NewHeygenAdapter(cfg.Providers.Heygen.APIKey, cfg.Providers.Heygen.BaseURL, cfg.Providers.Heygen.DefaultAvatarID),
		}
	}
	policies := map[model.ProviderKind]usecase.PollPolicy{
		model.ProviderPhoto:  {Interval: cfg.Providers.DID.PollInterval, MaxWait: cfg.Providers.DID.MaxWait},
		model.ProviderAvatar: {Interval: cfg.Providers.Heygen.PollInterval, MaxWait: cfg.Providers.Heygen.MaxWait},
	}

	// ---- Mailer ----
	var mailer adapter.Mailer
	if cfg.Email.ResendKey != "" {
		mailer, err = mail.NewResendMailer(cfg.Email.ResendKey, cfg.Email.From)
		if err != nil {
			log.Fatalf("resend mailer: %v", err)
		}
	} else {
		logger.Warn().Msg("email.resend_api_key not set; outcome emails will be suppressed")
		mailer = mail.NewNoopMailer(logger)
	}

	// ---- Optional operator alerts ----
	var alerter adapter.Alerter
	if cfg.Alerts.TelegramToken != "" && cfg.Alerts.TelegramChatID != 0 {
		tg, err := alert.NewTelegramAlerter(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID)
		if err != nil {
			log.Fatalf("telegram alerter: %v", err)
		}
		alerter = tg
	}

	// ---- Core ----
	runner := worker.NewRunner(ctx, logger)
	notifier := usecase.NewNotifier(mailer, alerter, logger)
	jobUC := usecase.NewJobUseCase(providers, policies, store, notifier, runner, logger)

	// ---- Snapshot worker ----
	// Runs on the runner so shutdown waits for the final snapshot pass.
	if snapSink != nil || archive != nil {
		snapWorker := sched.NewSnapshotWorker(cfg.Redis.SnapshotInterval, store, snapSink, archive, logger)
		if err := runner.Go("snapshot", snapWorker.Run); err != nil {
			logger.Error().Err(err).Msg("could not launch snapshot worker")
		}
	}

	// ---- HTTP servers ----
	ingressSrv := ingress.NewServer(cfg, jobUC, logger)
	go func() {
		if err := ingressSrv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ingress server error")
		}
	}()

	var adminSrv *web.Server
	if cfg.Admin.APIKey != "" {
		adminSrv = web.NewServer(&cfg.Admin, jobUC, logger)
		go func() {
			if err := adminSrv.Start(cfg.Admin.Port); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("admin server error")
			}
		}()
	} else {
		logger.Warn().Msg("admin.api_key not set; admin API disabled")
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = ingressSrv.Shutdown(shutdownCtx)
	if adminSrv != nil {
		_ = adminSrv.Shutdown(shutdownCtx)
	}
	cancel()
	runner.Stop()
}
