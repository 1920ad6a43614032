package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/repository"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxWait      = 10 * time.Minute
)

// Poller drives one job from submission to a terminal state. Exactly one
// poller owns a job id; all writes to that record flow through here after
// the orchestrator's initial upsert.
type Poller struct {
	provider adapter.RenderProvider
	store    repository.JobStore
	notify   *Notifier
	policy   PollPolicy
	log      *zerolog.Logger
}

func NewPoller(
	provider adapter.RenderProvider,
	store repository.JobStore,
	notify *Notifier,
	policy PollPolicy,
	logger *zerolog.Logger,
) *Poller {
	if policy.Interval <= 0 {
		policy.Interval = defaultPollInterval
	}
	if policy.MaxWait <= 0 {
		policy.MaxWait = defaultMaxWait
	}
	compLog := logger.With().Str("component", "Poller").Str("provider", string(provider.Kind())).Logger()
	return &Poller{provider: provider, store: store, notify: notify, policy: policy, log: &compLog}
}

// Run polls until the provider reports a terminal state or MaxWait elapses.
// Every observation, including transient transport errors, is persisted so
// the admin surface can audit progress without touching the provider.
func (p *Poller) Run(ctx context.Context, jobID string) error {
	start := time.Now()
	deadline := start.Add(p.policy.MaxWait)

	for {
		st, err := p.provider.Status(ctx, jobID)
		if err != nil {
			metrics.IncJobPoll(string(p.provider.Kind()), false)
			msg := err.Error()
			p.store.Upsert(ctx, jobID, model.JobUpdate{LastError: &msg})

			var perr *adapter.ProviderError
			if errors.As(err, &perr) && !perr.Retryable() {
				// A non-retryable error after a successful submission means
				// no video will arrive. Same outcome as a provider-reported
				// failure.
				p.log.Error().Err(err).Str("job_id", jobID).Msg("fatal provider error while polling")
				p.terminate(ctx, jobID, model.JobStatusFailed, "", start)
				return nil
			}
			p.log.Warn().Err(err).Str("job_id", jobID).Msg("transient poll failure")
		} else {
			metrics.IncJobPoll(string(p.provider.Kind()), true)
			switch {
			case st.Status == model.JobStatusDone && st.VideoURL != "":
				p.store.Upsert(ctx, jobID, model.JobUpdate{Raw: &st.Raw})
				p.terminate(ctx, jobID, model.JobStatusDone, st.VideoURL, start)
				return nil
			case st.Status == model.JobStatusFailed:
				p.store.Upsert(ctx, jobID, model.JobUpdate{Raw: &st.Raw})
				p.terminate(ctx, jobID, model.JobStatusFailed, "", start)
				return nil
			default:
				// Still in progress. "done" without a result URL stays in
				// the loop until the URL shows up or the wait bound trips.
				status := st.Status
				if status == model.JobStatusDone {
					status = model.JobStatusProcessing
				}
				p.store.Upsert(ctx, jobID, model.JobUpdate{Status: status, Raw: &st.Raw})
			}
		}

		if !time.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.policy.Interval):
		}
	}

	p.log.Warn().Str("job_id", jobID).Dur("waited", time.Since(start)).Msg("job exceeded max wait")
	p.terminate(ctx, jobID, model.JobStatusTimeout, "", start)
	return nil
}

// terminate writes the terminal transition and fires the single end-of-life
// notification. The store refuses a second terminal write, which also
// suppresses a duplicate notification.
func (p *Poller) terminate(ctx context.Context, jobID string, status model.JobStatus, videoURL string, start time.Time) {
	rec, applied := p.store.Upsert(ctx, jobID, model.JobUpdate{Status: status, VideoURL: videoURL})
	if !applied {
		p.log.Warn().Str("job_id", jobID).Str("status", string(status)).Msg("terminal transition refused; already terminal")
		return
	}

	metrics.IncJobTerminal(string(p.provider.Kind()), string(status))
	metrics.ObserveJobWait(string(p.provider.Kind()), time.Since(start))
	p.log.Info().Str("job_id", jobID).Str("status", string(status)).Msg("job terminal")

	switch status {
	case model.JobStatusDone:
		p.notify.Success(ctx, rec)
	case model.JobStatusFailed:
		p.notify.Failure(ctx, rec)
	case model.JobStatusTimeout:
		p.notify.StillWorking(ctx, rec)
	}
}
