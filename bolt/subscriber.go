package bolt

import (
	"context"
	"sort"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/go-errors/errors"

	"github.com/annweb/mailroom"
)

type subscriberService struct {
	db *DB
}

func NewSubscriberService(db *DB) mailroom.SubscriberService {
	return &subscriberService{
		db: db,
	}
}

// Upsert saves s unless a subscriber with the same email exists. The unique
// index on Email rejects a concurrent duplicate.
func (ss *subscriberService) Upsert(ctx context.Context, s *mailroom.Subscriber) (*mailroom.Subscriber, mailroom.UpsertResult, error) {
	tx, err := ss.db.begin(ctx)
	if err != nil {
		return nil, mailroom.Created, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing mailroom.Subscriber
	err = tx.One("Email", s.Email, &existing)
	switch {
	case errors.Is(err, storm.ErrNotFound):
		created := *s
		created.ID = 0
		if err := tx.Save(&created); err != nil {
			return nil, mailroom.Created, errors.Errorf("failed to save: %v", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, mailroom.Created, errors.Errorf("failed to commit: %v", err)
		}
		return &created, mailroom.Created, nil
	case err != nil:
		return nil, mailroom.Created, errors.Errorf("failed to find by email: %v", err)
	}

	if existing.Active {
		return &existing, mailroom.AlreadyActive, nil
	}

	if err := tx.UpdateField(&existing, "Active", true); err != nil {
		return nil, mailroom.Created, errors.Errorf("failed to reactivate: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mailroom.Created, errors.Errorf("failed to commit: %v", err)
	}

	existing.Active = true
	return &existing, mailroom.Reactivated, nil
}

// FindByToken finds subscriber by unsubscribe token
func (ss *subscriberService) FindByToken(ctx context.Context, token string) (*mailroom.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var s mailroom.Subscriber
	if err := ss.db.stormDB.One("UnsubscribeToken", token, &s); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"}
		}
		return nil, errors.Errorf("failed to find by token: %v", err)
	}

	return &s, nil
}

// Deactivate clears the active flag of the subscriber owning token
func (ss *subscriberService) Deactivate(ctx context.Context, token string) error {
	tx, err := ss.db.begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var s mailroom.Subscriber
	if err := tx.One("UnsubscribeToken", token, &s); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return &mailroom.Error{Code: mailroom.ErrNotFound, Message: "subscriber not found"}
		}
		return errors.Errorf("failed to find by token: %v", err)
	}

	if err := tx.UpdateField(&s, "Active", false); err != nil {
		return errors.Errorf("failed to deactivate: %v", err)
	}

	return tx.Commit()
}

// FindActive returns active subscribers, oldest first
func (ss *subscriberService) FindActive(ctx context.Context) ([]mailroom.Subscriber, error) {
	subscribers, err := ss.find(ctx, q.Eq("Active", true))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(subscribers, func(i, j int) bool {
		return subscribedBefore(subscribers[i], subscribers[j])
	})
	return subscribers, nil
}

// FindAll returns every subscriber, newest first
func (ss *subscriberService) FindAll(ctx context.Context) ([]mailroom.Subscriber, error) {
	subscribers, err := ss.find(ctx)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(subscribers)
	return subscribers, nil
}

func (ss *subscriberService) FindByIDs(ctx context.Context, ids []int) ([]mailroom.Subscriber, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	subscribers, err := ss.find(ctx, q.In("ID", ids))
	if err != nil {
		return nil, err
	}

	sortNewestFirst(subscribers)
	return subscribers, nil
}

func (ss *subscriberService) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := ss.db.stormDB.Select(q.Eq("Active", true)).Count(&mailroom.Subscriber{})
	if err != nil {
		return 0, errors.Errorf("failed to count active subscribers: %v", err)
	}
	return n, nil
}

func (ss *subscriberService) find(ctx context.Context, matchers ...q.Matcher) ([]mailroom.Subscriber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var subscribers []mailroom.Subscriber
	if err := ss.db.stormDB.Select(matchers...).Find(&subscribers); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Errorf("failed to find subscribers: %v", err)
	}

	return subscribers, nil
}

func subscribedBefore(a, b mailroom.Subscriber) bool {
	if a.DateSubscribed.Equal(b.DateSubscribed) {
		return a.ID < b.ID
	}
	return a.DateSubscribed.Before(b.DateSubscribed)
}

func sortNewestFirst(subscribers []mailroom.Subscriber) {
	sort.SliceStable(subscribers, func(i, j int) bool {
		return subscribedBefore(subscribers[j], subscribers[i])
	})
}
