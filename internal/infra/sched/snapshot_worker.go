package sched

import (
	"context"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// SnapshotSink receives the periodic dump of the job table.
type SnapshotSink interface {
	Save(ctx context.Context, recs []model.JobRecord) error
}

// SnapshotWorker periodically dumps the job table to the configured sink and
// archives newly-terminal jobs. Both paths are best effort; the core's
// correctness never depends on this worker.
type SnapshotWorker struct {
	interval time.Duration
	store    repository.JobStore
	sink     SnapshotSink
	archive  repository.JobArchive // optional
	archived map[string]struct{}
	log      *zerolog.Logger
}

func NewSnapshotWorker(
	interval time.Duration,
	store repository.JobStore,
	sink SnapshotSink,
	archive repository.JobArchive,
	logger *zerolog.Logger,
) *SnapshotWorker {
	compLog := logger.With().Str("component", "SnapshotWorker").Logger()
	return &SnapshotWorker{
		interval: interval,
		store:    store,
		sink:     sink,
		archive:  archive,
		archived: make(map[string]struct{}),
		log:      &compLog,
	}
}

func (w *SnapshotWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting snapshot worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final snapshot on shutdown so a restart can restore state.
			w.runOnce(context.Background())
			w.log.Info().Msg("Stopping snapshot worker")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SnapshotWorker) runOnce(ctx context.Context) {
	recs := w.store.List(ctx)

	if w.sink != nil {
		if err := w.sink.Save(ctx, recs); err != nil {
			w.log.Error().Err(err).Msg("snapshot save failed")
		}
	}

	if w.archive == nil {
		return
	}
	for _, rec := range recs {
		if !rec.Status.Terminal() {
			continue
		}
		if _, done := w.archived[rec.ID]; done {
			continue
		}
		if err := w.archive.Archive(ctx, rec); err != nil {
			w.log.Error().Err(err).Str("job_id", rec.ID).Msg("job archive failed")
			continue
		}
		w.archived[rec.ID] = struct{}{}
	}
}
