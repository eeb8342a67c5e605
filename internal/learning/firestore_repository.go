package learning

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const sessionsCollection = "learning_sessions"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed session repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, session Session) error {
	_, err := r.client.Collection(sessionsCollection).Doc(session.ID).Create(ctx, session)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, sessionID string) (Session, error) {
	snap, err := r.client.Collection(sessionsCollection).Doc(sessionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return decodeSession(snap)
}

func (r *firestoreRepository) Update(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	ref := r.client.Collection(sessionsCollection).Doc(sessionID)
	var out Session

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		sess, err := decodeSession(snap)
		if err != nil {
			return err
		}
		if err := fn(&sess); err != nil {
			return err
		}
		out = sess
		return tx.Update(ref, []firestore.Update{
			{Path: "ended_at", Value: sess.EndedAt},
			{Path: "duration_ms", Value: sess.DurationMs},
			{Path: "stats_pending", Value: sess.StatsPending},
		})
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

func (r *firestoreRepository) ListByUser(ctx context.Context, userID string, limit int) ([]Session, error) {
	iter := r.client.Collection(sessionsCollection).
		Where("user_id", "==", userID).
		OrderBy("started_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	out := make([]Session, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		sess, err := decodeSession(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

func decodeSession(snap *firestore.DocumentSnapshot) (Session, error) {
	var sess Session
	if err := snap.DataTo(&sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	sess.ID = snap.Ref.ID
	return sess, nil
}
