package badges

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores badges under users/{userID}/badges/{name}.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) badges(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("badges")
}

func (r *firestoreRepository) Award(ctx context.Context, b Badge) (bool, error) {
	_, err := r.badges(b.UserID).Doc(b.Name).Create(ctx, b)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *firestoreRepository) ListByUser(ctx context.Context, userID string) ([]Badge, error) {
	iter := r.badges(userID).Documents(ctx)
	defer iter.Stop()

	var out []Badge
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var b Badge
		if err := doc.DataTo(&b); err != nil {
			return nil, fmt.Errorf("unmarshal badge: %w", err)
		}
		b.UserID = userID
		out = append(out, b)
	}
	sortBadges(out)
	return out, nil
}
