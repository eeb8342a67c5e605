package files

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

// NewFirestoreRepository creates a Firestore-backed file metadata repository.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, f File) error {
	_, err := r.client.Collection("files").Doc(f.ID).Set(ctx, f)
	return err
}

func (r *firestoreRepository) Get(ctx context.Context, fileID string) (File, error) {
	snap, err := r.client.Collection("files").Doc(fileID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, err
	}
	return decodeFile(snap)
}

func (r *firestoreRepository) ListByUser(ctx context.Context, userID string) ([]File, error) {
	iter := r.client.Collection("files").
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	out := make([]File, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		f, err := decodeFile(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *firestoreRepository) Delete(ctx context.Context, fileID string) error {
	_, err := r.client.Collection("files").Doc(fileID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func decodeFile(snap *firestore.DocumentSnapshot) (File, error) {
	var f File
	if err := snap.DataTo(&f); err != nil {
		return File{}, fmt.Errorf("unmarshal file: %w", err)
	}
	f.ID = snap.Ref.ID
	return f, nil
}
