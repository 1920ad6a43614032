package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/memstore"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/usecase"
)

func fastPolicy() usecase.PollPolicy {
	return usecase.PollPolicy{Interval: 2 * time.Millisecond, MaxWait: 50 * time.Millisecond}
}

func seedJob(t *testing.T, store *memstore.JobStore, id string, kind model.ProviderKind) {
	t.Helper()
	store.Upsert(context.Background(), id, model.JobUpdate{
		Provider: kind,
		Status:   model.JobStatusSubmitted,
		ToEmail:  "cliente@example.it",
	})
}

func TestPoller(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("done on first poll sends one success email", func(t *testing.T) {
		// --- Arrange ---
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderPhoto, "talk-1")
		provider.statuses = []adapter.ProviderStatus{
			{Status: model.JobStatusDone, VideoURL: "https://x/v1.mp4", Raw: `{"status":"done"}`},
		}
		seedJob(t, store, "talk-1", model.ProviderPhoto)
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		// --- Act ---
		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "talk-1"); err != nil {
			t.Fatalf("run: %v", err)
		}

		// --- Assert ---
		rec, _ := store.Get(ctx, "talk-1")
		if rec.Status != model.JobStatusDone || rec.VideoURL != "https://x/v1.mp4" {
			t.Errorf("record = %+v", rec)
		}
		sent := mailer.sent()
		if len(sent) != 1 {
			t.Fatalf("emails sent = %d, want 1", len(sent))
		}
		if sent[0].To != "cliente@example.it" || !strings.Contains(sent[0].Body, "https://x/v1.mp4") {
			t.Errorf("unexpected email: %+v", sent[0])
		}
	})

	t.Run("processing then failed sends one failure email and no url", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		alerter := &mockAlerter{}
		provider := newMockProvider(model.ProviderAvatar, "vid-1")
		provider.statuses = []adapter.ProviderStatus{
			{Status: model.JobStatusProcessing},
			{Status: model.JobStatusProcessing},
			{Status: model.JobStatusProcessing},
			{Status: model.JobStatusFailed, Raw: `{"status":"failed"}`},
		}
		seedJob(t, store, "vid-1", model.ProviderAvatar)
		notify := usecase.NewNotifier(mailer, alerter, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "vid-1"); err != nil {
			t.Fatalf("run: %v", err)
		}

		rec, _ := store.Get(ctx, "vid-1")
		if rec.Status != model.JobStatusFailed {
			t.Errorf("status = %s, want failed", rec.Status)
		}
		if rec.VideoURL != "" {
			t.Errorf("failed job has video url %q", rec.VideoURL)
		}
		if got := provider.pollCount(); got != 4 {
			t.Errorf("polls = %d, want 4", got)
		}
		if len(mailer.sent()) != 1 {
			t.Errorf("emails sent = %d, want 1", len(mailer.sent()))
		}
		if len(alerter.alerts()) != 1 {
			t.Errorf("alerts = %d, want 1", len(alerter.alerts()))
		}
	})

	t.Run("never terminal ends in timeout with one email", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderPhoto, "talk-2")
		provider.statuses = []adapter.ProviderStatus{{Status: model.JobStatusProcessing}}
		seedJob(t, store, "talk-2", model.ProviderPhoto)
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "talk-2"); err != nil {
			t.Fatalf("run: %v", err)
		}

		rec, _ := store.Get(ctx, "talk-2")
		if rec.Status != model.JobStatusTimeout {
			t.Errorf("status = %s, want timeout", rec.Status)
		}
		if len(mailer.sent()) != 1 {
			t.Errorf("emails sent = %d, want 1", len(mailer.sent()))
		}
	})

	t.Run("transient transport error is retried, not terminal", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderPhoto, "talk-3")
		provider.statuses = []adapter.ProviderStatus{
			{}, // slot for the error below
			{Status: model.JobStatusDone, VideoURL: "https://x/v3.mp4"},
		}
		provider.statusErrs = []error{
			&adapter.ProviderError{Provider: model.ProviderPhoto, Kind: adapter.ProviderErrTransport, Message: "connection reset"},
		}
		seedJob(t, store, "talk-3", model.ProviderPhoto)
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "talk-3"); err != nil {
			t.Fatalf("run: %v", err)
		}

		rec, _ := store.Get(ctx, "talk-3")
		if rec.Status != model.JobStatusDone {
			t.Errorf("status = %s, want done after retry", rec.Status)
		}
		if rec.LastError == "" {
			t.Error("transient error was not recorded")
		}
	})

	t.Run("fatal provider error while polling terminates as failed", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderAvatar, "vid-2")
		provider.statuses = []adapter.ProviderStatus{{}}
		provider.statusErrs = []error{
			&adapter.ProviderError{Provider: model.ProviderAvatar, Kind: adapter.ProviderErrConfig, Message: "HEYGEN_API_KEY missing"},
		}
		seedJob(t, store, "vid-2", model.ProviderAvatar)
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "vid-2"); err != nil {
			t.Fatalf("run: %v", err)
		}

		rec, _ := store.Get(ctx, "vid-2")
		if rec.Status != model.JobStatusFailed {
			t.Errorf("status = %s, want failed", rec.Status)
		}
		if got := provider.pollCount(); got != 1 {
			t.Errorf("polls = %d, want 1 (no retry on config error)", got)
		}
		if len(mailer.sent()) != 1 {
			t.Errorf("emails sent = %d, want 1", len(mailer.sent()))
		}
	})

	t.Run("already-terminal record suppresses a second notification", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderPhoto, "talk-4")
		provider.statuses = []adapter.ProviderStatus{
			{Status: model.JobStatusFailed},
		}
		seedJob(t, store, "talk-4", model.ProviderPhoto)
		// Someone already terminated this job.
		store.Upsert(ctx, "talk-4", model.JobUpdate{Status: model.JobStatusDone, VideoURL: "https://x/v4.mp4"})
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "talk-4"); err != nil {
			t.Fatalf("run: %v", err)
		}

		rec, _ := store.Get(ctx, "talk-4")
		if rec.Status != model.JobStatusDone {
			t.Errorf("terminal status regressed to %s", rec.Status)
		}
		if len(mailer.sent()) != 0 {
			t.Errorf("emails sent = %d, want 0", len(mailer.sent()))
		}
	})

	t.Run("repeating the terminal status does not re-notify", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderPhoto, "talk-7")
		provider.statuses = []adapter.ProviderStatus{
			{Status: model.JobStatusFailed},
		}
		seedJob(t, store, "talk-7", model.ProviderPhoto)
		// The job already failed; this poller observes the same outcome again.
		store.Upsert(ctx, "talk-7", model.JobUpdate{Status: model.JobStatusFailed})
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "talk-7"); err != nil {
			t.Fatalf("run: %v", err)
		}

		if len(mailer.sent()) != 0 {
			t.Errorf("emails sent = %d, want 0", len(mailer.sent()))
		}
	})

	t.Run("notification failure does not reopen the job", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{SendErr: errors.New("smtp down")}
		provider := newMockProvider(model.ProviderPhoto, "talk-5")
		provider.statuses = []adapter.ProviderStatus{
			{Status: model.JobStatusDone, VideoURL: "https://x/v5.mp4"},
		}
		seedJob(t, store, "talk-5", model.ProviderPhoto)
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		p := usecase.NewPoller(provider, store, notify, fastPolicy(), testLogger)
		if err := p.Run(ctx, "talk-5"); err != nil {
			t.Fatalf("run: %v", err)
		}

		rec, _ := store.Get(ctx, "talk-5")
		if rec.Status != model.JobStatusDone {
			t.Errorf("status = %s, want done despite failed email", rec.Status)
		}
	})

	t.Run("cancellation stops the poller without a terminal write", func(t *testing.T) {
		store := memstore.NewJobStore()
		mailer := &mockMailer{}
		provider := newMockProvider(model.ProviderPhoto, "talk-6")
		provider.statuses = []adapter.ProviderStatus{{Status: model.JobStatusProcessing}}
		seedJob(t, store, "talk-6", model.ProviderPhoto)
		notify := usecase.NewNotifier(mailer, nil, testLogger)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		policy := usecase.PollPolicy{Interval: time.Hour, MaxWait: time.Hour}
		p := usecase.NewPoller(provider, store, notify, policy, testLogger)
		if err := p.Run(cctx, "talk-6"); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}

		rec, _ := store.Get(ctx, "talk-6")
		if rec.Status.Terminal() {
			t.Errorf("cancelled poller wrote terminal status %s", rec.Status)
		}
		if len(mailer.sent()) != 0 {
			t.Error("cancelled poller sent a notification")
		}
	})
}
