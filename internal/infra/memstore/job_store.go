package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.JobStore = (*JobStore)(nil)

// JobStore is the process-local job table. One mutex guards the whole map;
// critical sections are a single merge or copy, never I/O.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.JobRecord

	// now is swappable in tests.
	now func() time.Time
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*model.JobRecord), now: time.Now}
}

// Upsert merges upd into the record for id, creating it on the first call.
// CreatedAt is fixed at creation. Once a record is terminal, Status and
// VideoURL are frozen; Raw/LastError/UpdatedAt stay writable for auditing.
// The returned flag is false when a status write was refused.
func (s *JobStore) Upsert(_ context.Context, id string, upd model.JobUpdate) (model.JobRecord, bool) {
	if id == "" {
		return model.JobRecord{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	rec, ok := s.jobs[id]
	if !ok {
		rec = &model.JobRecord{ID: id, CreatedAt: ts}
		s.jobs[id] = rec
	}

	applied := true
	frozen := rec.Status.Terminal()

	if upd.Provider != "" && rec.Provider == "" {
		rec.Provider = upd.Provider
	}
	if upd.ToEmail != "" && rec.ToEmail == "" {
		rec.ToEmail = upd.ToEmail
	}
	if upd.OrderName != "" && rec.OrderName == "" {
		rec.OrderName = upd.OrderName
	}
	if upd.Raw != nil {
		rec.Raw = *upd.Raw
	}
	if upd.LastError != nil {
		rec.LastError = *upd.LastError
	}

	if upd.Status != "" {
		if frozen {
			// Repeating the current terminal status is refused like any
			// other status write, so a duplicate terminal transition is
			// always reported to the caller.
			applied = false
		} else {
			rec.Status = upd.Status
		}
	}
	if upd.VideoURL != "" {
		if frozen {
			applied = false
		} else {
			rec.VideoURL = upd.VideoURL
		}
	}

	rec.UpdatedAt = ts
	return *rec, applied
}

func (s *JobStore) Get(_ context.Context, id string) (model.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return model.JobRecord{}, domain.ErrNotFound
	}
	return *rec, nil
}

// List returns a point-in-time snapshot, most recently updated first.
func (s *JobStore) List(_ context.Context) []model.JobRecord {
	s.mu.RLock()
	out := make([]model.JobRecord, 0, len(s.jobs))
	for _, rec := range s.jobs {
		out = append(out, *rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Replace swaps the whole table in one shot. Used by the snapshot sidecar to
// restore state on boot; not part of the JobStore port.
func (s *JobStore) Replace(recs []model.JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]*model.JobRecord, len(recs))
	for i := range recs {
		cp := recs[i]
		if cp.ID == "" {
			continue
		}
		s.jobs[cp.ID] = &cp
	}
}
