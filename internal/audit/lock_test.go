package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentryscreen/sentryscreen/internal/indexstore"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	store := indexstore.New("")
	logger, err := NewLogger(store, "sentryscreen-entities-audit-log", "test-1.0", "")
	require.NoError(t, err)
	return logger
}

func TestAcquireLock_SingleWriterSucceeds(t *testing.T) {
	logger := newTestLogger(t)
	ctx := context.Background()

	acquired, docID, err := logger.AcquireLock(ctx, "sentryscreen-entities-default-v2", "sentryscreen-entities", "default", "20260101000000", "writer-a", ReindexFull)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.NotEmpty(t, docID)

	locked, err := logger.IsLocked(ctx, "sentryscreen-entities-default-v2")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestAcquireLock_SecondWriterBlockedWhileStarted(t *testing.T) {
	logger := newTestLogger(t)
	ctx := context.Background()

	acquired, _, err := logger.AcquireLock(ctx, "sentryscreen-entities-default-v2", "sentryscreen-entities", "default", "v1", "writer-a", ReindexFull)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired2, _, err := logger.AcquireLock(ctx, "sentryscreen-entities-default-v2", "sentryscreen-entities", "default", "v1", "writer-b", ReindexFull)
	require.NoError(t, err)
	assert.False(t, acquired2)
}

func TestAcquireLock_FreedAfterRelease(t *testing.T) {
	logger := newTestLogger(t)
	ctx := context.Background()

	_, docID, err := logger.AcquireLock(ctx, "idx", "alias", "default", "v1", "writer-a", ReindexFull)
	require.NoError(t, err)

	require.NoError(t, logger.Release(ctx, "idx", "alias", "default", "v1", "writer-a", ReindexFull, true))
	_ = docID

	acquired, _, err := logger.AcquireLock(ctx, "idx", "alias", "default", "v1", "writer-b", ReindexFull)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAcquireLock_ExactlyOneWinnerAmongConcurrentAttempts(t *testing.T) {
	logger := newTestLogger(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			acquired, _, err := logger.AcquireLock(ctx, "idx", "alias", "default", "v1", "writer", ReindexFull)
			require.NoError(t, err)
			if acquired {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestTentativeWinner_OldestWins(t *testing.T) {
	now := time.Unix(1700000000, 0)
	entries := []LogEntry{
		{ID: "b", MessageType: MsgLockTentative, Timestamp: now.Add(2 * time.Second)},
		{ID: "a", MessageType: MsgLockTentative, Timestamp: now.Add(1 * time.Second)},
	}
	winner, ok := tentativeWinner(entries)
	require.True(t, ok)
	assert.Equal(t, "a", winner.ID)
}

func TestTentativeWinner_StopsAtNonTentative(t *testing.T) {
	now := time.Unix(1700000000, 0)
	entries := []LogEntry{
		{ID: "b", MessageType: MsgLockTentative, Timestamp: now.Add(2 * time.Second)},
		{ID: "started", MessageType: MsgStarted, Timestamp: now.Add(1 * time.Second)},
		{ID: "a", MessageType: MsgLockTentative, Timestamp: now},
	}
	winner, ok := tentativeWinner(entries)
	require.True(t, ok)
	assert.Equal(t, "b", winner.ID)
}

func TestRecordRollover(t *testing.T) {
	logger := newTestLogger(t)
	ctx := context.Background()
	require.NoError(t, logger.RecordRollover(ctx, "idx-v2", "alias", "default", "v2", "writer-a"))
}
