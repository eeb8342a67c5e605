package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a relational chat repository.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateConversation(ctx context.Context, c Conversation) error {
	return r.db.WithContext(ctx).Create(&c).Error
}

func (r *gormRepository) GetConversation(ctx context.Context, conversationID string) (Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).Where("id = ?", conversationID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *gormRepository) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var out []Conversation
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&Conversation{}).Where("id = ?", conversationID).UpdateColumn("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository) AppendMessage(ctx context.Context, m Message) error {
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *gormRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	var out []Message
	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *gormRepository) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	var out []Message
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
