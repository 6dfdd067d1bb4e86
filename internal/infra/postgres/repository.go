package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
)

// IntervalRepository stores review sessions and their exported intervals.
type IntervalRepository struct {
	pool *pgxpool.Pool
}

var _ port.ExportSink = (*IntervalRepository)(nil)

func NewIntervalRepository(pool *pgxpool.Pool) *IntervalRepository {
	return &IntervalRepository{pool: pool}
}

func (r *IntervalRepository) Name() string { return "postgres" }

// WriteExport upserts the session and replaces its intervals in one
// transaction, so exporting the same session twice leaves one copy.
func (r *IntervalRepository) WriteExport(ctx context.Context, session *entity.Session, records []entity.Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin export tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO review_sessions (id, video_path, video_key, start_frame, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			video_path=EXCLUDED.video_path, video_key=EXCLUDED.video_key,
			finished_at=EXCLUDED.finished_at`,
		session.ID, session.VideoPath, session.VideoKey,
		int64(session.StartFrame), session.StartedAt, session.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM review_intervals WHERE session_id=$1`, session.ID); err != nil {
		return fmt.Errorf("clear intervals: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO review_intervals (session_id, kind, idx, start_frame, end_frame)
			VALUES ($1,$2,$3,$4,$5)`,
			session.ID, rec.Kind.String(), rec.Index, int64(rec.Start), int64(rec.End),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert intervals: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit export tx: %w", err)
	}
	return nil
}

// FindIntervals returns a session's intervals in export order.
func (r *IntervalRepository) FindIntervals(ctx context.Context, sessionID uuid.UUID) ([]entity.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, idx, start_frame, end_frame
		FROM review_intervals WHERE session_id=$1
		ORDER BY CASE kind WHEN 'Event' THEN 0 ELSE 1 END, idx`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query intervals: %w", err)
	}
	defer rows.Close()

	var out []entity.Record
	for rows.Next() {
		var (
			kind       string
			rec        entity.Record
			start, end int64
		)
		if err := rows.Scan(&kind, &rec.Index, &start, &end); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		if rec.Kind, err = entity.ParseKind(kind); err != nil {
			return nil, err
		}
		rec.Start, rec.End = entity.FrameID(start), entity.FrameID(end)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return out, nil
}
