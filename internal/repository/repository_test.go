package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func message(room string, n int) *domain.Message {
	return &domain.Message{
		MessageID:        fmt.Sprintf("%s-%03d", room, n),
		RoomID:           room,
		UserID:           "u1",
		Username:         "Alice",
		Text:             fmt.Sprintf("msg %d", n),
		Timestamp:        base.Add(time.Duration(n) * time.Second),
		ModerationStatus: domain.ModerationSafe,
		ModerationReason: domain.ReasonNotApplicable,
	}
}

func TestMemoryRepo_RecentIsOldestFirstAndBounded(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository()

	for i := 1; i <= 25; i++ {
		require.NoError(t, repo.Append(ctx, message("lobby", i)))
	}

	got, err := repo.Recent(ctx, "lobby", 20)
	require.NoError(t, err)
	require.Len(t, got, 20)
	assert.Equal(t, "msg 6", got[0].Text)
	assert.Equal(t, "msg 25", got[19].Text)
}

func TestMemoryRepo_UnknownRoomIsEmpty(t *testing.T) {
	repo := NewMemoryMessageRepository()

	got, err := repo.Recent(context.Background(), "nowhere", 20)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryRepo_DuplicatesAreKept(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository()

	a := message("lobby", 1)
	b := *a
	b.MessageID = "lobby-dup"

	require.NoError(t, repo.Append(ctx, a))
	require.NoError(t, repo.Append(ctx, &b))

	got, err := repo.Recent(ctx, "lobby", 20)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, got[0].Text, got[1].Text)
}

func TestMemoryRepo_RoomIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository()

	require.NoError(t, repo.Append(ctx, message("a", 1)))
	require.NoError(t, repo.Append(ctx, message("b", 2)))

	got, err := repo.Recent(ctx, "a", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].RoomID)
}

func TestMemoryRepo_LateAppendIsOrderedByTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository()

	require.NoError(t, repo.Append(ctx, message("lobby", 3)))
	require.NoError(t, repo.Append(ctx, message("lobby", 1)))
	require.NoError(t, repo.Append(ctx, message("lobby", 2)))

	got, err := repo.Recent(ctx, "lobby", 20)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("msg %d", i+1), m.Text)
	}
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository()
	require.NoError(t, repo.Append(ctx, message("lobby", 1)))

	got, err := repo.Recent(ctx, "lobby", 20)
	require.NoError(t, err)
	got[0].Text = "changed"

	again, err := repo.Recent(ctx, "lobby", 20)
	require.NoError(t, err)
	assert.Equal(t, "msg 1", again[0].Text)
}

func TestMemoryRepo_ErrorsAreStorageErrors(t *testing.T) {
	repo := NewMemoryMessageRepository()
	require.NoError(t, repo.Close())

	err := repo.Append(context.Background(), message("lobby", 1))
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "append", se.Op)

	_, err = repo.Recent(context.Background(), "lobby", 20)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "recent", se.Op)
}

func TestMemoryRepo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMemoryMessageRepository().Append(ctx, message("lobby", 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRepo_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = repo.Append(ctx, message("lobby", n))
		}(i)
	}
	wg.Wait()

	got, err := repo.Recent(ctx, "lobby", 100)
	require.NoError(t, err)
	require.Len(t, got, 50)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp))
	}
}

func TestParseConsistency(t *testing.T) {
	assert.Equal(t, gocql.Quorum, parseConsistency("quorum"))
	assert.Equal(t, gocql.LocalQuorum, parseConsistency("LOCAL_QUORUM"))
	assert.Equal(t, gocql.LocalOne, parseConsistency(""))
	assert.Equal(t, gocql.LocalOne, parseConsistency("bogus"))
}
