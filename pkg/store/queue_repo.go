package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/engagic/core/pkg/models"
)

// QueueRepo implements the durable priority job queue: a single
// table with one unique index on source_url, atomic dequeue via
// SELECT ... FOR UPDATE SKIP LOCKED, and a three-strike retry ladder before
// a job lands in the dead-letter tier.
type QueueRepo struct{}

func NewQueueRepo() *QueueRepo { return &QueueRepo{} }

// RetryLimit is the number of transient failures tolerated before a job
// moves to dead_letter. Overridable at startup from config; default 3.
var RetryLimit = 3

// Enqueue upserts on source_url. An existing completed/failed/dead_letter
// row is left alone unless force is true (which resets it to pending); an
// existing pending/processing row only has its priority raised to
// max(existing, new). There is never more than one row per source_url.
func (r *QueueRepo) Enqueue(ctx context.Context, q Querier, job models.QueueJob, force bool) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", job.SourceURL, err)
	}

	existing, err := r.bySourceURL(ctx, q, job.SourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := q.ExecContext(ctx, `
			INSERT INTO queue (source_url, meeting_id, banana, job_type, payload, status, priority)
			VALUES ($1,$2,$3,$4,$5,'pending',$6)
		`, job.SourceURL, job.MeetingID, job.Banana, string(job.JobType), payload, job.Priority)
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", job.SourceURL, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup existing job for %s: %w", job.SourceURL, err)
	}

	switch existing.Status {
	case models.JobStatusPending, models.JobStatusProcessing:
		priority := job.Priority
		if existing.Priority > priority {
			priority = existing.Priority
		}
		_, err := q.ExecContext(ctx, `UPDATE queue SET priority = $2 WHERE id = $1`, existing.ID, priority)
		if err != nil {
			return fmt.Errorf("raise priority for %s: %w", job.SourceURL, err)
		}
		return nil
	default: // completed, failed, dead_letter
		if !force {
			return nil
		}
		_, err := q.ExecContext(ctx, `
			UPDATE queue SET status = 'pending', priority = $2, retry_count = 0,
				started_at = NULL, completed_at = NULL, failed_at = NULL, error_message = NULL, payload = $3
			WHERE id = $1
		`, existing.ID, job.Priority, payload)
		if err != nil {
			return fmt.Errorf("re-enqueue %s: %w", job.SourceURL, err)
		}
		return nil
	}
}

func (r *QueueRepo) bySourceURL(ctx context.Context, q Querier, sourceURL string) (models.QueueJob, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, source_url, meeting_id, banana, job_type, payload, status, priority, retry_count
		FROM queue WHERE source_url = $1
	`, sourceURL)

	var job models.QueueJob
	var jobType, status string
	var payload []byte
	if err := row.Scan(&job.ID, &job.SourceURL, &job.MeetingID, &job.Banana, &jobType, &payload, &status, &job.Priority, &job.RetryCount); err != nil {
		return models.QueueJob{}, err
	}
	job.JobType = models.JobType(jobType)
	job.Status = models.JobStatus(status)
	_ = json.Unmarshal(payload, &job.Payload)
	return job, nil
}

// GetNextForProcessing atomically dequeues up to limit pending jobs of the
// given type (or any type if jobType is nil), marking them processing. The
// SELECT ... FOR UPDATE SKIP LOCKED guarantees no two concurrent callers
// ever dequeue the same row. Must be called with a *sql.Tx via With —
// dequeue is the one cross-worker
// synchronization point and must be DB-atomic.
func (r *QueueRepo) GetNextForProcessing(ctx context.Context, tx *sql.Tx, jobType *models.JobType, limit int) ([]models.QueueJob, error) {
	var rows *sql.Rows
	var err error
	if jobType != nil {
		rows, err = tx.QueryContext(ctx, `
			SELECT id, source_url, meeting_id, banana, job_type, payload, priority, retry_count
			FROM queue WHERE status = 'pending' AND job_type = $1
			ORDER BY priority DESC, created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, string(*jobType), limit)
	} else {
		rows, err = tx.QueryContext(ctx, `
			SELECT id, source_url, meeting_id, banana, job_type, payload, priority, retry_count
			FROM queue WHERE status = 'pending'
			ORDER BY priority DESC, created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("select jobs for dequeue: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var jobs []models.QueueJob
	for rows.Next() {
		var job models.QueueJob
		var jt string
		var payload []byte
		if err := rows.Scan(&job.ID, &job.SourceURL, &job.MeetingID, &job.Banana, &jt, &payload, &job.Priority, &job.RetryCount); err != nil {
			return nil, err
		}
		job.JobType = models.JobType(jt)
		_ = json.Unmarshal(payload, &job.Payload)
		job.Status = models.JobStatusProcessing
		jobs = append(jobs, job)
		ids = append(ids, job.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE queue SET status = 'processing', started_at = now() WHERE id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("mark dequeued jobs processing: %w", err)
	}
	return jobs, nil
}

// MarkComplete marks a job completed.
func (r *QueueRepo) MarkComplete(ctx context.Context, q Querier, jobID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE queue SET status = 'completed', completed_at = now() WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("mark job %d complete: %w", jobID, err)
	}
	return nil
}

// MarkFailed implements the retry ladder: retryable errors are
// requeued with reduced priority up to RetryLimit attempts, after which the
// job moves to dead_letter; non-retryable errors skip straight to
// dead_letter regardless of retry_count.
func (r *QueueRepo) MarkFailed(ctx context.Context, q Querier, jobID int64, cause error, retryable bool) error {
	row := q.QueryRowContext(ctx, `SELECT priority, retry_count FROM queue WHERE id = $1`, jobID)
	var priority, retryCount int
	if err := row.Scan(&priority, &retryCount); err != nil {
		return fmt.Errorf("load job %d for failure handling: %w", jobID, err)
	}

	msg := cause.Error()

	if !retryable || retryCount >= RetryLimit {
		_, err := q.ExecContext(ctx, `
			UPDATE queue SET status = 'dead_letter', failed_at = now(), error_message = $2 WHERE id = $1
		`, jobID, msg)
		if err != nil {
			return fmt.Errorf("dead-letter job %d: %w", jobID, err)
		}
		return nil
	}

	newPriority := priority - 20*(retryCount+1)
	_, err := q.ExecContext(ctx, `
		UPDATE queue SET status = 'pending', priority = $2, retry_count = retry_count + 1, error_message = $3
		WHERE id = $1
	`, jobID, newPriority, msg)
	if err != nil {
		return fmt.Errorf("requeue job %d: %w", jobID, err)
	}
	return nil
}

// RecoverStale resets any processing row whose started_at predates
// threshold back to pending, recovering from a worker that died mid-job.
// Also run at process startup.
func (r *QueueRepo) RecoverStale(ctx context.Context, q Querier, threshold time.Duration) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE queue SET status = 'pending', started_at = NULL
		WHERE status = 'processing' AND started_at < now() - $1::interval
	`, fmt.Sprintf("%d seconds", int(threshold.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("recover stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetDeadLetter manually resets a dead-letter job to pending, for
// operator-triggered reprocessing.
func (r *QueueRepo) ResetDeadLetter(ctx context.Context, q Querier, jobID int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE queue SET status = 'pending', retry_count = 0, error_message = NULL
		WHERE id = $1 AND status = 'dead_letter'
	`, jobID)
	if err != nil {
		return fmt.Errorf("reset dead-letter job %d: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reset dead-letter job %d: no dead-letter row with that id", jobID)
	}
	return nil
}

// Stats returns queue depth by status, for the stats endpoint external
// consumers poll, including dead-letter counts.
func (r *QueueRepo) Stats(ctx context.Context, q Querier) (models.QueueStats, error) {
	var stats models.QueueStats
	row := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'dead_letter'),
			EXTRACT(EPOCH FROM (now() - MIN(created_at) FILTER (WHERE status = 'pending')))
		FROM queue
	`)
	var oldestSeconds sql.NullFloat64
	if err := row.Scan(&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed, &stats.DeadLetter, &oldestSeconds); err != nil {
		return models.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	if oldestSeconds.Valid {
		d := time.Duration(oldestSeconds.Float64) * time.Second
		stats.OldestPendingAge = &d
	}
	return stats, nil
}
