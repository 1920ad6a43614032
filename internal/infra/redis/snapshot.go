package redis

import (
	"context"
	"encoding/json"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
)

// SnapshotStore persists the whole job table as one JSON blob. It is a
// best-effort sidecar: the core never reads it during normal operation, only
// on boot to repopulate the in-memory store.
type SnapshotStore struct {
	cli RedisClient
	key string
}

func NewSnapshotStore(cli RedisClient, key string) *SnapshotStore {
	return &SnapshotStore{cli: cli, key: key}
}

func (s *SnapshotStore) Save(ctx context.Context, recs []model.JobRecord) error {
	b, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, s.key, b, 0)
}

// Load returns the last snapshot, or (nil, nil) when none exists.
func (s *SnapshotStore) Load(ctx context.Context) ([]model.JobRecord, error) {
	raw, err := s.cli.Get(ctx, s.key)
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var recs []model.JobRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
