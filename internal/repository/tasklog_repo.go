package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
)

type TaskLogRepo struct {
	pool *pgxpool.Pool
}

func NewTaskLogRepo(pool *pgxpool.Pool) *TaskLogRepo {
	return &TaskLogRepo{pool: pool}
}

// Insert writes the in-flight row for a run (success still null).
func (r *TaskLogRepo) Insert(ctx context.Context, tl *model.TaskLog) error {
	query := `
		INSERT INTO task_logs (id, task_type, started_at)
		VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, tl.ID, tl.TaskType, tl.StartedAt)
	return err
}

// Finish finalizes the row. Rows are never mutated after finished_at is set;
// the guard in the WHERE clause enforces that at the store level.
func (r *TaskLogRepo) Finish(ctx context.Context, tl *model.TaskLog) error {
	query := `
		UPDATE task_logs
		SET finished_at = $1, success = $2, message = $3, duration_ms = $4
		WHERE id = $5 AND finished_at IS NULL`

	_, err := r.pool.Exec(ctx, query,
		tl.FinishedAt, tl.Success, tl.Message, tl.DurationMs, tl.ID)
	return err
}

// Recent returns the latest task log rows, newest first.
func (r *TaskLogRepo) Recent(ctx context.Context, limit int) ([]model.TaskLog, error) {
	query := `
		SELECT id, task_type, started_at, finished_at, success, COALESCE(message, ''), COALESCE(duration_ms, 0)
		FROM task_logs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.TaskLog
	for rows.Next() {
		var tl model.TaskLog
		err := rows.Scan(&tl.ID, &tl.TaskType, &tl.StartedAt, &tl.FinishedAt,
			&tl.Success, &tl.Message, &tl.DurationMs)
		if err != nil {
			return nil, err
		}
		logs = append(logs, tl)
	}
	return logs, rows.Err()
}

// CountSince returns run and failure counts since t, for the overview.
func (r *TaskLogRepo) CountSince(ctx context.Context, t time.Time) (runs, failed int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE success = false)
		FROM task_logs
		WHERE started_at >= $1`

	err = r.pool.QueryRow(ctx, query, t).Scan(&runs, &failed)
	return runs, failed, err
}
