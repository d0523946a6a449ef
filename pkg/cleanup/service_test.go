package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/engagic/core/pkg/config"
	"github.com/engagic/core/pkg/models"
	"github.com/engagic/core/pkg/store"
	testdb "github.com/engagic/core/test/database"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return testdb.NewTestStore(t)
}

func enqueueAndDequeue(t *testing.T, s *store.Store, sourceURL string) int64 {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Queue.Enqueue(ctx, s.DB(), models.QueueJob{
		SourceURL: sourceURL,
		JobType:   models.JobTypeMeeting,
		Priority:  10,
	}, false))

	var id int64
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT id FROM queue WHERE source_url = $1`, sourceURL).Scan(&id))

	tx, err := s.DB().Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = s.Queue.GetNextForProcessing(ctx, tx, nil, 10)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	return id
}

func TestService_RecoversStaleJobOnStartup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := enqueueAndDequeue(t, s, "https://example.gov/stale-startup")

	_, err := s.DB().ExecContext(ctx, `UPDATE queue SET started_at = now() - interval '1 hour' WHERE id = $1`, id)
	require.NoError(t, err)

	cfg := &config.QueueConfig{StaleThreshold: 10 * time.Minute, StaleRecoveryInterval: time.Hour}
	svc := NewService(cfg, s)
	svc.recoverStale(ctx)

	var status string
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT status FROM queue WHERE id = $1`, id).Scan(&status))
	require.Equal(t, "pending", status)
}

func TestService_PreservesFreshProcessingJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := enqueueAndDequeue(t, s, "https://example.gov/fresh")

	cfg := &config.QueueConfig{StaleThreshold: 10 * time.Minute, StaleRecoveryInterval: time.Hour}
	svc := NewService(cfg, s)
	svc.recoverStale(ctx)

	var status string
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT status FROM queue WHERE id = $1`, id).Scan(&status))
	require.Equal(t, "processing", status)
}

func TestService_ResetDeadLetter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := enqueueAndDequeue(t, s, "https://example.gov/dead")
	require.NoError(t, s.Queue.MarkFailed(ctx, s.DB(), id, errFakePermanent, false))

	cfg := &config.QueueConfig{StaleThreshold: 10 * time.Minute, StaleRecoveryInterval: time.Hour}
	svc := NewService(cfg, s)
	require.NoError(t, svc.ResetDeadLetter(ctx, id))

	var status string
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT status FROM queue WHERE id = $1`, id).Scan(&status))
	require.Equal(t, "pending", status)
}

var errFakePermanent = fakeErr("permanent vendor rejection")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
