package store

import (
	"context"
	"fmt"

	"github.com/brainbarter/brain_barter/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *GormStore) Matches() MatchStore   { return gormMatches{db: s.db} }
func (s *GormStore) Messages() MessageStore { return gormMessages{db: s.db} }

type gormMatches struct {
	db *gorm.DB
}

func (r gormMatches) CreateRequest(ctx context.Context, request *models.MatchRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("create match request: %w", translate(err))
	}
	return nil
}

func (r gormMatches) HasPendingRequest(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MatchRequest{}).
		Where("sender_id = ? AND recipient_id = ? AND status = ?", senderID, recipientID, models.MatchPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check pending match request: %w", translate(err))
	}
	return count > 0, nil
}

func (r gormMatches) ListRequests(ctx context.Context, userID uuid.UUID, incoming bool) ([]models.MatchRequest, error) {
	column := "sender_id"
	if incoming {
		column = "recipient_id"
	}
	var requests []models.MatchRequest
	err := r.db.WithContext(ctx).
		Where(column+" = ? AND status = ?", userID, models.MatchPending).
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list match requests: %w", translate(err))
	}
	return requests, nil
}

func (r gormMatches) FindRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.MatchRequest, error) {
	var request models.MatchRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("lock match request %s: %w", id, translate(err))
	}
	return &request, nil
}

func (r gormMatches) SetRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&models.MatchRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update match request %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update match request %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r gormMatches) AddPair(ctx context.Context, forward, reverse models.Match) error {
	pair := []models.Match{forward, reverse}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&pair).Error
	if err != nil {
		return fmt.Errorf("create match pair: %w", translate(err))
	}
	return nil
}

func (r gormMatches) Mutual(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("(user_id = ? AND partner_id = ?) OR (user_id = ? AND partner_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check match: %w", translate(err))
	}
	return count == 2, nil
}

type gormMessages struct {
	db *gorm.DB
}

func (r gormMessages) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create message: %w", translate(err))
	}
	return nil
}

func (r gormMessages) Between(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("timestamp asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", translate(err))
	}
	return messages, nil
}
