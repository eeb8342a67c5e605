package plans

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const plansCollection = "plans"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository creates a Firestore-backed plan repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, p Plan) error {
	_, err := r.client.Collection(plansCollection).Doc(p.ID).Create(ctx, p)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("plan %s already exists", p.ID)
	}
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, planID string) (Plan, error) {
	snap, err := r.client.Collection(plansCollection).Doc(planID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	return decodePlan(snap)
}

func (r *firestoreRepository) ListByUser(ctx context.Context, userID string) ([]Plan, error) {
	iter := r.client.Collection(plansCollection).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var out []Plan
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := decodePlan(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, planID string) error {
	ref := r.client.Collection(plansCollection).Doc(planID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	_, err := ref.Delete(ctx)
	return err
}

func decodePlan(snap *firestore.DocumentSnapshot) (Plan, error) {
	var p Plan
	if err := snap.DataTo(&p); err != nil {
		return Plan{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	p.ID = snap.Ref.ID
	return p, nil
}
