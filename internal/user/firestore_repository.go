package user

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection  = "users"
	emailsCollection = "user_emails"
)

type emailIndex struct {
	UserID string `firestore:"user_id"`
}

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores users under users/{id} with a user_emails/{email} uniqueness index.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) userRef(userID string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(userID)
}

func (r *firestoreRepository) emailRef(email string) *firestore.DocumentRef {
	return r.client.Collection(emailsCollection).Doc(email)
}

func (r *firestoreRepository) Get(ctx context.Context, userID string) (User, error) {
	snap, err := r.userRef(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return decodeUser(snap)
}

func (r *firestoreRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	snap, err := r.emailRef(email).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	var idx emailIndex
	if err := snap.DataTo(&idx); err != nil {
		return User{}, fmt.Errorf("unmarshal email index: %w", err)
	}
	return r.Get(ctx, idx.UserID)
}

func (r *firestoreRepository) CreateIfMissing(ctx context.Context, u User) (User, bool, error) {
	var (
		out     User
		created bool
	)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		idxSnap, err := tx.Get(r.emailRef(u.Email))
		if err == nil {
			var idx emailIndex
			if err := idxSnap.DataTo(&idx); err != nil {
				return fmt.Errorf("unmarshal email index: %w", err)
			}
			userSnap, err := tx.Get(r.userRef(idx.UserID))
			if err != nil {
				return err
			}
			out, err = decodeUser(userSnap)
			return err
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(r.userRef(u.ID), u); err != nil {
			return err
		}
		if err := tx.Create(r.emailRef(u.Email), emailIndex{UserID: u.ID}); err != nil {
			return err
		}
		out = u
		created = true
		return nil
	})
	if err != nil {
		return User{}, false, err
	}
	return out, created, nil
}

func (r *firestoreRepository) Credits(ctx context.Context, userID string) (int, error) {
	u, err := r.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}

func (r *firestoreRepository) UpdateCredits(ctx context.Context, userID string, at time.Time, fn func(int) (int, error)) (int, error) {
	ref := r.userRef(userID)
	var balance int

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		u, err := decodeUser(snap)
		if err != nil {
			return err
		}

		next, err := fn(u.Credits)
		if err != nil {
			return err
		}
		balance = next
		return tx.Update(ref, []firestore.Update{
			{Path: "credits", Value: next},
			{Path: "updated_at", Value: at},
		})
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func decodeUser(snap *firestore.DocumentSnapshot) (User, error) {
	var u User
	if err := snap.DataTo(&u); err != nil {
		return User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	u.ID = snap.Ref.ID
	return u, nil
}
