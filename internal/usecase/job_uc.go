package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/repository"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/metrics"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// SubmitRequest carries one validated render submission. Exactly one of
// Photo/Avatar is set; the ingress layer has already parsed voice specifiers.
type SubmitRequest struct {
	Provider  model.ProviderKind
	Photo     *model.PhotoJob
	Avatar    *model.AvatarJob
	ToEmail   string
	OrderName string
}

type JobUseCase interface {
	// Submit sends the request to the selected provider, registers the job
	// and launches its poller. It returns as soon as submission succeeds;
	// polling never blocks the caller.
	Submit(ctx context.Context, req SubmitRequest) (model.JobRecord, error)
	Query(ctx context.Context, id string) (model.JobRecord, error)
	List(ctx context.Context) []model.JobRecord
	// Resend re-sends the success email for an already-done job.
	Resend(ctx context.Context, id string) error
}

// PollPolicy bounds one provider's polling loop.
type PollPolicy struct {
	Interval time.Duration
	MaxWait  time.Duration
}

type jobUC struct {
	providers map[model.ProviderKind]adapter.RenderProvider
	policies  map[model.ProviderKind]PollPolicy
	store     repository.JobStore
	notify    *Notifier
	runner    *worker.Runner
	log       *zerolog.Logger
}

func NewJobUseCase(
	providers []adapter.RenderProvider,
	policies map[model.ProviderKind]PollPolicy,
	store repository.JobStore,
	notify *Notifier,
	runner *worker.Runner,
	logger *zerolog.Logger,
) *jobUC {
	byKind := make(map[model.ProviderKind]adapter.RenderProvider, len(providers))
	for _, p := range providers {
		byKind[p.Kind()] = p
	}
	compLog := logger.With().Str("component", "JobUseCase").Logger()
	return &jobUC{
		providers: byKind,
		policies:  policies,
		store:     store,
		notify:    notify,
		runner:    runner,
		log:       &compLog,
	}
}

func (u *jobUC) Submit(ctx context.Context, req SubmitRequest) (model.JobRecord, error) {
	if err := validate(req); err != nil {
		return model.JobRecord{}, err
	}
	provider, ok := u.providers[req.Provider]
	if !ok {
		return model.JobRecord{}, fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, req.Provider)
	}

	jobID, raw, err := provider.Submit(ctx, adapter.RenderRequest{Photo: req.Photo, Avatar: req.Avatar})
	if err != nil {
		return model.JobRecord{}, err
	}

	rec, _ := u.store.Upsert(ctx, jobID, model.JobUpdate{
		Provider:  req.Provider,
		Status:    model.JobStatusSubmitted,
		ToEmail:   req.ToEmail,
		OrderName: req.OrderName,
		Raw:       &raw,
	})
	metrics.IncJobSubmitted(string(req.Provider))
	u.log.Info().
		Str("job_id", jobID).
		Str("provider", string(req.Provider)).
		Str("order", req.OrderName).
		Msg("job submitted")

	policy := u.policies[req.Provider]
	poller := NewPoller(provider, u.store, u.notify, policy, u.log)
	if err := u.runner.Go("poll:"+jobID, func(ctx context.Context) error {
		return poller.Run(ctx, jobID)
	}); err != nil {
		u.log.Error().Err(err).Str("job_id", jobID).Msg("could not launch poller")
	}
	return rec, nil
}

func (u *jobUC) Query(ctx context.Context, id string) (model.JobRecord, error) {
	return u.store.Get(ctx, id)
}

func (u *jobUC) List(ctx context.Context) []model.JobRecord {
	return u.store.List(ctx)
}

func (u *jobUC) Resend(ctx context.Context, id string) error {
	rec, err := u.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != model.JobStatusDone || rec.VideoURL == "" {
		return domain.ErrNotReady
	}
	if rec.ToEmail == "" {
		return domain.ErrNoRecipient
	}
	return u.notify.Resend(ctx, rec)
}

func validate(req SubmitRequest) error {
	if req.ToEmail == "" {
		return fmt.Errorf("%w: to_email is required", domain.ErrInvalidInput)
	}
	switch {
	case req.Photo != nil && req.Avatar == nil:
		if req.Photo.ImageURL == "" {
			return fmt.Errorf("%w: image_url is required", domain.ErrInvalidInput)
		}
		if err := exactlyOneSource(req.Photo.Script, req.Photo.AudioURL); err != nil {
			return err
		}
	case req.Avatar != nil && req.Photo == nil:
		if err := exactlyOneSource(req.Avatar.Script, req.Avatar.AudioURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: exactly one of photo or avatar input must be set", domain.ErrInvalidInput)
	}
	return nil
}

func exactlyOneSource(script, audioURL string) error {
	if script == "" && audioURL == "" {
		return fmt.Errorf("%w: either script or audio_url must be provided", domain.ErrInvalidInput)
	}
	if script != "" && audioURL != "" {
		return fmt.Errorf("%w: script and audio_url are mutually exclusive", domain.ErrInvalidInput)
	}
	return nil
}
