package stats

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const statsCollection = "user_stats"

// batchLimit stays below Firestore's 500-write batch ceiling.
const batchLimit = 400

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed stats repository keyed by user id.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(statsCollection).Doc(userID)
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (Stats, error) {
	snap, err := r.doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Stats{}, ErrNotFound
	}
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	if err := snap.DataTo(&st); err != nil {
		return Stats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	st.UserID = userID
	return st, nil
}

func (r *firestoreRepository) Create(ctx context.Context, st Stats) error {
	_, err := r.doc(st.UserID).Create(ctx, st)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) Update(ctx context.Context, userID string, fn func(*Stats) error) (Stats, error) {
	ref := r.doc(userID)
	var out Stats

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var st Stats
		if err := snap.DataTo(&st); err != nil {
			return fmt.Errorf("unmarshal stats: %w", err)
		}
		if err := fn(&st); err != nil {
			return err
		}
		st.UserID = userID
		out = st
		return tx.Set(ref, st)
	})
	if err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (r *firestoreRepository) ResetPeriod(ctx context.Context, period Period, at time.Time) (int, error) {
	field, err := periodField(period)
	if err != nil {
		return 0, err
	}

	iter := r.client.Collection(statsCollection).Where(field, ">", 0).Documents(ctx)
	defer iter.Stop()

	batch := r.client.Batch()
	pending, changed := 0, 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return changed, err
		}
		batch.Update(doc.Ref, []firestore.Update{
			{Path: field, Value: 0},
			{Path: "updated_at", Value: at},
		})
		pending++
		if pending == batchLimit {
			if _, err := batch.Commit(ctx); err != nil {
				return changed, err
			}
			changed += pending
			batch = r.client.Batch()
			pending = 0
		}
	}
	if pending > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return changed, err
		}
		changed += pending
	}
	return changed, nil
}

func periodField(period Period) (string, error) {
	switch period {
	case PeriodWeekly:
		return "weekly_learning_time_ms", nil
	case PeriodMonthly:
		return "monthly_learning_time_ms", nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidInput, period)
	}
}
