package todos

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const todosCollection = "todos"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed todo repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, t Todo) error {
	_, err := r.client.Collection(todosCollection).Doc(t.ID).Set(ctx, t)
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, todoID string) (Todo, error) {
	snap, err := r.client.Collection(todosCollection).Doc(todoID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, err
	}
	return decodeTodo(snap)
}

func (r *firestoreRepository) ListByUser(ctx context.Context, userID string, filter Filter) ([]Todo, error) {
	q := r.client.Collection(todosCollection).Where("user_id", "==", userID)
	if filter.PlanID != "" {
		q = q.Where("plan_id", "==", filter.PlanID)
	}
	if filter.PendingOnly {
		q = q.Where("completed", "==", false)
	}
	iter := q.OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := make([]Todo, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		t, err := decodeTodo(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *firestoreRepository) Update(ctx context.Context, todoID string, fn func(*Todo) error) (Todo, error) {
	ref := r.client.Collection(todosCollection).Doc(todoID)
	var out Todo

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		t, err := decodeTodo(snap)
		if err != nil {
			return err
		}
		if err := fn(&t); err != nil {
			return err
		}
		out = t
		return tx.Set(ref, t)
	})
	if err != nil {
		return Todo{}, err
	}
	return out, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, todoID string) error {
	ref := r.client.Collection(todosCollection).Doc(todoID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	_, err := ref.Delete(ctx)
	return err
}

func (r *firestoreRepository) UpdatePending(ctx context.Context, userID, planID string, fn func(*Todo) error) (int, error) {
	q := r.client.Collection(todosCollection).
		Where("user_id", "==", userID).
		Where("completed", "==", false)
	if planID != "" {
		q = q.Where("plan_id", "==", planID)
	}

	var count int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		count = 0
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		for _, snap := range snaps {
			t, err := decodeTodo(snap)
			if err != nil {
				return err
			}
			if t.DueDate == "" {
				continue
			}
			if err := fn(&t); err != nil {
				return err
			}
			if err := tx.Update(snap.Ref, []firestore.Update{
				{Path: "due_date", Value: t.DueDate},
				{Path: "updated_at", Value: t.UpdatedAt},
			}); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func decodeTodo(snap *firestore.DocumentSnapshot) (Todo, error) {
	var t Todo
	if err := snap.DataTo(&t); err != nil {
		return Todo{}, fmt.Errorf("unmarshal todo: %w", err)
	}
	t.ID = snap.Ref.ID
	return t, nil
}
