package store

import (
	"context"
	"fmt"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserStore       { return gormUsers{db: s.db} }
func (s *GormStore) Sessions() SessionStore { return gormSessions{db: s.db} }

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

type gormUsers struct {
	db *gorm.DB
}

func (r gormUsers) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, translate(err))
	}
	return &user, nil
}

func (r gormUsers) AdjustCredits(ctx context.Context, id uuid.UUID, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("credits", gorm.Expr("credits + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("adjust credits for %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("adjust credits for %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r gormUsers) AppendReview(ctx context.Context, userID uuid.UUID, review *models.Review) (*models.User, error) {
	review.RevieweeID = userID
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, fmt.Errorf("append review for %s: %w", userID, translate(err))
	}
	return r.GetUser(ctx, userID)
}

func (r gormUsers) SetRating(ctx context.Context, id uuid.UUID, rating float64) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("rating", rating)
	if res.Error != nil {
		return fmt.Errorf("set rating for %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set rating for %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r gormUsers) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r gormUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user by email: %w", translate(err))
	}
	return &user, nil
}

func (r gormUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("update password for %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update password for %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r gormUsers) UpdateSkills(ctx context.Context, id uuid.UUID, skills, skillsWanted []string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("update skills for %s: %w", id, translate(err))
	}
	user.Skills = skills
	user.SkillsWanted = skillsWanted
	if err := r.db.WithContext(ctx).Select("skills", "skills_wanted", "updated_at").Save(&user).Error; err != nil {
		return nil, fmt.Errorf("update skills for %s: %w", id, translate(err))
	}
	return &user, nil
}

func (r gormUsers) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete user %s: %w", id, ErrNotFound)
	}
	return nil
}

type gormSessions struct {
	db *gorm.DB
}

func (r gormSessions) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", translate(err))
	}
	return session, nil
}

func (r gormSessions) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find session %s: %w", id, translate(err))
	}
	return &session, nil
}

func (r gormSessions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", id, translate(err))
	}
	return &session, nil
}

func (r gormSessions) FindPending(ctx context.Context, learnerID, teacherID uuid.UUID, skill string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("learner_id = ? AND teacher_id = ? AND skill = ? AND status = ?", learnerID, teacherID, skill, models.SessionPending).
		First(&session).Error
	if err != nil {
		return nil, fmt.Errorf("find pending session: %w", translate(err))
	}
	return &session, nil
}

func (r gormSessions) Update(ctx context.Context, session *models.Session) (*models.Session, error) {
	// Associations are read-side decoration only; never cascade them.
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(session).Error; err != nil {
		return nil, fmt.Errorf("update session %s: %w", session.ID, translate(err))
	}
	return session, nil
}

func (r gormSessions) ListIncoming(ctx context.Context, teacherID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Preload("Learner").
		Where("teacher_id = ? AND status = ?", teacherID, models.SessionPending).
		Order("created_at desc").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list incoming sessions: %w", translate(err))
	}
	return sessions, nil
}

func (r gormSessions) ListBetween(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Where("(learner_id = ? AND teacher_id = ?) OR (learner_id = ? AND teacher_id = ?)", userID, partnerID, partnerID, userID).
		Order("created_at desc").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions between users: %w", translate(err))
	}
	return sessions, nil
}

func (r gormSessions) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Preload("Learner").
		Preload("Teacher").
		Where("learner_id = ? OR teacher_id = ?", userID, userID).
		Order("created_at desc").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions for user: %w", translate(err))
	}
	return sessions, nil
}

func (r gormSessions) ListStalePending(ctx context.Context, createdBefore time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Preload("Learner").
		Where("status = ? AND created_at < ?", models.SessionPending, createdBefore).
		Order("created_at asc").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list stale pending sessions: %w", translate(err))
	}
	return sessions, nil
}
