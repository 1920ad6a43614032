package postgres

import (
	"context"
	"errors"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/model"
	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.JobArchive = (*jobArchive)(nil)

// jobArchive copies terminal jobs into video_jobs for durable retention.
// The in-memory store stays authoritative; this table is audit history.
type jobArchive struct {
	pool *pgxpool.Pool
}

func NewJobArchive(pool *pgxpool.Pool) *jobArchive {
	return &jobArchive{pool: pool}
}

func (r *jobArchive) Archive(ctx context.Context, rec model.JobRecord) error {
	const q = `
INSERT INTO video_jobs (id, provider, status, video_url, to_email, order_name, raw, last_error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING;`

	_, err := r.pool.Exec(ctx, q,
		rec.ID, string(rec.Provider), string(rec.Status), rec.VideoURL,
		rec.ToEmail, rec.OrderName, rec.Raw, rec.LastError,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: already archived by an earlier snapshot pass.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return err
	}
	return nil
}
