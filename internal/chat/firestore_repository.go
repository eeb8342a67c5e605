package chat

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores conversations in conversations/{id} and messages in a subcollection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) conversation(id string) *firestore.DocumentRef {
	return r.client.Collection("conversations").Doc(id)
}

func (r *firestoreRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.conversation(conversationID).Collection("messages")
}

func (r *firestoreRepository) CreateConversation(ctx context.Context, c Conversation) error {
	_, err := r.conversation(c.ID).Set(ctx, c)
	return err
}

func (r *firestoreRepository) GetConversation(ctx context.Context, conversationID string) (Conversation, error) {
	snap, err := r.conversation(conversationID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	var c Conversation
	if err := snap.DataTo(&c); err != nil {
		return Conversation{}, fmt.Errorf("unmarshal conversation: %w", err)
	}
	c.ID = snap.Ref.ID
	return c, nil
}

func (r *firestoreRepository) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	iter := r.client.Collection("conversations").
		Where("user_id", "==", userID).
		OrderBy("updated_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	out := make([]Conversation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var c Conversation
		if err := doc.DataTo(&c); err != nil {
			return nil, fmt.Errorf("unmarshal conversation: %w", err)
		}
		c.ID = doc.Ref.ID
		out = append(out, c)
	}
	return out, nil
}

func (r *firestoreRepository) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	_, err := r.conversation(conversationID).Update(ctx, []firestore.Update{
		{Path: "updated_at", Value: at},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (r *firestoreRepository) AppendMessage(ctx context.Context, m Message) error {
	_, err := r.messages(m.ConversationID).Doc(m.ID).Set(ctx, m)
	return err
}

func (r *firestoreRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	query := r.messages(conversationID).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	out, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *firestoreRepository) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	return r.collect(r.messages(conversationID).OrderBy("created_at", firestore.Asc).Documents(ctx))
}

func (r *firestoreRepository) collect(iter *firestore.DocumentIterator) ([]Message, error) {
	defer iter.Stop()
	out := make([]Message, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var m Message
		if err := doc.DataTo(&m); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		m.ID = doc.Ref.ID
		out = append(out, m)
	}
	return out, nil
}
