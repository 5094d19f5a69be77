package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annweb/mailroom"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db := NewDB(memoryPath, zerolog.Nop())
	require.NoError(t, db.Open())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newSubscriber(email string, at time.Time) *mailroom.Subscriber {
	return mailroom.NewSubscriber(email, uuid.NewV4().String(), "", at)
}

func TestSubscriberService_Upsert(t *testing.T) {
	ctx := context.Background()
	ss := NewSubscriberService(openTestDB(t))
	now := time.Now().UTC()

	first := newSubscriber("foo@bar.com", now)
	created, result, err := ss.Upsert(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, mailroom.Created, result)
	assert.NotZero(t, created.ID)

	again, result, err := ss.Upsert(ctx, newSubscriber("foo@bar.com", now.Add(time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, mailroom.AlreadyActive, result)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, first.UnsubscribeToken, again.UnsubscribeToken)

	all, err := ss.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubscriberService_Reactivate(t *testing.T) {
	ctx := context.Background()
	ss := NewSubscriberService(openTestDB(t))
	subscribedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	first := newSubscriber("foo@bar.com", subscribedAt)
	_, _, err := ss.Upsert(ctx, first)
	require.NoError(t, err)
	require.NoError(t, ss.Deactivate(ctx, first.UnsubscribeToken))

	n, err := ss.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	s, result, err := ss.Upsert(ctx, newSubscriber("foo@bar.com", time.Now().UTC()))
	require.NoError(t, err)
	assert.Equal(t, mailroom.Reactivated, result)
	assert.True(t, s.Active)
	assert.Equal(t, first.UnsubscribeToken, s.UnsubscribeToken)
	assert.True(t, subscribedAt.Equal(s.DateSubscribed))

	n, err = ss.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubscriberService_ConcurrentUpsert(t *testing.T) {
	ctx := context.Background()
	ss := NewSubscriberService(openTestDB(t))

	const workers = 8
	results := make(chan mailroom.UpsertResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, result, err := ss.Upsert(ctx, newSubscriber("race@bar.com", time.Now().UTC()))
			assert.NoError(t, err)
			results <- result
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for r := range results {
		if r == mailroom.Created {
			created++
		}
	}
	assert.Equal(t, 1, created)

	all, err := ss.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubscriberService_UnknownToken(t *testing.T) {
	ctx := context.Background()
	ss := NewSubscriberService(openTestDB(t))

	_, err := ss.FindByToken(ctx, uuid.NewV4().String())
	assert.Equal(t, mailroom.ErrNotFound, mailroom.ErrorCode(err))

	err = ss.Deactivate(ctx, uuid.NewV4().String())
	assert.Equal(t, mailroom.ErrNotFound, mailroom.ErrorCode(err))
}

func TestSubscriberService_Ordering(t *testing.T) {
	ctx := context.Background()
	ss := NewSubscriberService(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []int
	for i := 0; i < 3; i++ {
		s, _, err := ss.Upsert(ctx, newSubscriber(fmt.Sprintf("u%d@bar.com", i), base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	inactive, err := ss.FindByIDs(ctx, ids[1:2])
	require.NoError(t, err)
	require.NoError(t, ss.Deactivate(ctx, inactive[0].UnsubscribeToken))

	active, err := ss.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u0@bar.com", "u2@bar.com"}, mailroom.Emails(active))

	all, err := ss.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2@bar.com", "u1@bar.com", "u0@bar.com"}, mailroom.Emails(all))

	selected, err := ss.FindByIDs(ctx, []int{ids[0], ids[2]})
	require.NoError(t, err)
	assert.Equal(t, []string{"u2@bar.com", "u0@bar.com"}, mailroom.Emails(selected))

	none, err := ss.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContactService(t *testing.T) {
	ctx := context.Background()
	cs := NewContactService(openTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &mailroom.ContactMessage{FullName: "Jane", Email: "jane@x.io", Message: "Hi", CreatedAt: base}
	second := &mailroom.ContactMessage{FullName: "Bob", Phone: "555", Email: "bob@x.io", Message: "Hey", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, cs.Insert(ctx, first))
	require.NoError(t, cs.Insert(ctx, second))
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	n, err := cs.SetRead(ctx, []int{first.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := cs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bob", all[0].FullName)
	assert.False(t, all[0].Read)
	assert.Equal(t, "Jane", all[1].FullName)
	assert.True(t, all[1].Read)

	selected, err := cs.FindByIDs(ctx, []int{second.ID})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "555", selected[0].Phone)
}
