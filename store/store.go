// Package store holds the user ledger, the session record store, matches and
// chat messages behind interfaces with a Postgres (GORM) and an in-memory
// implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Ledger is the credit and reputation side of a user.
type Ledger interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	AdjustCredits(ctx context.Context, id uuid.UUID, delta int) error
	// AppendReview stores review against userID and returns the user with
	// all reviews in chronological order.
	AppendReview(ctx context.Context, userID uuid.UUID, review *models.Review) (*models.User, error)
	SetRating(ctx context.Context, id uuid.UUID, rating float64) error
}

type UserStore interface {
	Ledger
	CreateUser(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateSkills(ctx context.Context, id uuid.UUID, skills, skillsWanted []string) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// FindByIDForUpdate reads the session and holds it until the enclosing
	// transaction ends. Outside a transaction it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error)
	FindPending(ctx context.Context, learnerID, teacherID uuid.UUID, skill string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) (*models.Session, error)

	ListIncoming(ctx context.Context, teacherID uuid.UUID) ([]models.Session, error)
	ListBetween(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]models.Session, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	ListStalePending(ctx context.Context, createdBefore time.Time) ([]models.Session, error)
}

// MatchStore holds match requests and accepted matches. An accepted match is
// one Match row per side; two users are matched only when both rows exist.
type MatchStore interface {
	CreateRequest(ctx context.Context, request *models.MatchRequest) error
	HasPendingRequest(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error)
	// ListRequests returns pending requests received by userID when incoming
	// is set, otherwise those it sent; newest first.
	ListRequests(ctx context.Context, userID uuid.UUID, incoming bool) ([]models.MatchRequest, error)
	FindRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.MatchRequest, error)
	SetRequestStatus(ctx context.Context, id uuid.UUID, status string) error
	// AddPair stores both directions of a match. Rows that already exist
	// are left alone.
	AddPair(ctx context.Context, forward, reverse models.Match) error
	Mutual(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	// Between returns the conversation of a and b, oldest first.
	Between(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
}

type Tx interface {
	Users() UserStore
	Sessions() SessionStore
	Matches() MatchStore
	Messages() MessageStore
}

// Store runs fn in a single transaction; any error returned by fn rolls
// every write back.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
