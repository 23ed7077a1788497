package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/observability"
	"github.com/brainbarter/brain_barter/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// recentSessionsLimit caps SessionsWith.
const recentSessionsLimit = 10

// ProposalNotice is sent to the teacher when a learner proposes a session.
type ProposalNotice struct {
	Session     *models.Session `json:"session"`
	LearnerName string          `json:"learner_name"`
}

// SettlementService runs the session lifecycle: proposal, the teacher's
// decision, completion by both parties with the credit transfer, and
// disputes. Every transition is one store transaction holding the session
// row; notifications go out only after commit.
type SettlementService struct {
	store    store.Store
	notifier notifications.Notifier
	now      func() time.Time
}

func NewSettlementService(st store.Store, notifier notifications.Notifier) *SettlementService {
	if notifier == nil {
		notifier = notifications.Discard{}
	}
	return &SettlementService{store: st, notifier: notifier, now: time.Now}
}

func (s *SettlementService) ProposeSession(ctx context.Context, learnerID, teacherID uuid.UUID, skill string) (*models.Session, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" || learnerID == teacherID {
		return nil, ErrInvalidProposal
	}

	var (
		created *models.Session
		learner *models.User
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		learner, err = tx.Users().GetUser(ctx, learnerID)
		if err != nil {
			return userErr(err)
		}
		if learner.Credits < 1 {
			return ErrInsufficientCredits
		}
		if _, err := tx.Users().GetUser(ctx, teacherID); err != nil {
			return userErr(err)
		}

		_, err = tx.Sessions().FindPending(ctx, learnerID, teacherID, skill)
		if err == nil {
			return ErrDuplicateProposal
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		created, err = tx.Sessions().Create(ctx, &models.Session{
			LearnerID: learnerID,
			TeacherID: teacherID,
			Skill:     skill,
			Status:    models.SessionPending,
		})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateProposal
		}
		return err
	})
	if err != nil {
		observability.SettlementErrors.WithLabelValues("propose").Inc()
		return nil, err
	}

	created.Learner = publicUser(learner)
	observability.SessionsProposed.Inc()
	log.Info().
		Str("session_id", created.ID.String()).
		Str("learner_id", learnerID.String()).
		Str("teacher_id", teacherID.String()).
		Str("skill", skill).
		Msg("session proposed")

	s.notifier.Notify(teacherID, notifications.EventNewSessionProposal, ProposalNotice{
		Session:     created,
		LearnerName: learner.DisplayName(),
	})
	return created, nil
}

func (s *SettlementService) RespondToSession(ctx context.Context, sessionID, responderID uuid.UUID, decision Decision) (*models.Session, error) {
	var next models.SessionStatus
	switch decision {
	case DecisionAccept:
		next = models.SessionAccepted
	case DecisionReject:
		next = models.SessionRejected
	default:
		return nil, ErrInvalidDecision
	}

	var updated *models.Session
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		session, err := tx.Sessions().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return sessionErr(err)
		}
		if session.Status != models.SessionPending {
			return ErrInvalidState
		}
		if session.TeacherID != responderID {
			return ErrNotAuthorized
		}

		session.Status = next
		updated, err = tx.Sessions().Update(ctx, session)
		return err
	})
	if err != nil {
		observability.SettlementErrors.WithLabelValues("respond").Inc()
		return nil, err
	}

	observability.SessionResponses.WithLabelValues(string(decision)).Inc()
	log.Info().Str("session_id", sessionID.String()).Str("status", string(next)).Msg("session answered")

	message := fmt.Sprintf("Your session for %q was accepted!", updated.Skill)
	if next == models.SessionRejected {
		message = fmt.Sprintf("Your session for %q was rejected.", updated.Skill)
	}
	s.notifier.Notify(updated.LearnerID, notifications.EventSessionUpdate, notifications.SessionUpdate{
		SessionID: updated.ID,
		Status:    string(updated.Status),
		Message:   message,
	})
	return updated, nil
}

// CompleteSession records one party's confirmation and their review of the
// other party. The call that sets the second flag also completes the
// session and moves one credit from learner to teacher.
func (s *SettlementService) CompleteSession(ctx context.Context, sessionID, completerID uuid.UUID, rating int, comment string) (*models.Session, error) {
	var (
		updated *models.Session
		settled bool
		party   = "learner"
	)
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		session, err := tx.Sessions().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return sessionErr(err)
		}
		// A party's own confirmation is final whatever the status has
		// moved on to, including after settlement.
		if session.HasCompleted(completerID) {
			return ErrAlreadyCompleted
		}
		if session.Status != models.SessionAccepted {
			return ErrInvalidState
		}

		switch completerID {
		case session.LearnerID:
		case session.TeacherID:
			party = "teacher"
		default:
			return ErrNotAuthorized
		}
		if !validRating(rating) {
			return ErrInvalidRating
		}

		if party == "learner" {
			session.LearnerCompleted = true
		} else {
			session.TeacherCompleted = true
		}

		reviewee := session.Counterpart(completerID)
		reviewed, err := tx.Users().AppendReview(ctx, reviewee, &models.Review{
			FromUserID: completerID,
			SessionID:  session.ID,
			Rating:     rating,
			Comment:    strings.TrimSpace(comment),
			CreatedAt:  s.now(),
		})
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAlreadyCompleted
		}
		if err != nil {
			return userErr(err)
		}
		if err := tx.Users().SetRating(ctx, reviewee, AverageRating(reviewed.Reviews)); err != nil {
			return err
		}

		if session.LearnerCompleted && session.TeacherCompleted {
			session.Status = models.SessionCompleted
			if err := tx.Users().AdjustCredits(ctx, session.LearnerID, -1); err != nil {
				return err
			}
			if err := tx.Users().AdjustCredits(ctx, session.TeacherID, 1); err != nil {
				return err
			}
			settled = true
		}

		updated, err = tx.Sessions().Update(ctx, session)
		return err
	})
	if err != nil {
		observability.SettlementErrors.WithLabelValues("complete").Inc()
		return nil, err
	}

	observability.SessionCompletions.WithLabelValues(party, fmt.Sprint(settled)).Inc()

	if !settled {
		log.Info().Str("session_id", sessionID.String()).Str("party", party).Msg("session completion confirmed")
		s.notifier.Notify(updated.Counterpart(completerID), notifications.EventSessionUpdate, notifications.SessionUpdate{
			SessionID: updated.ID,
			Status:    string(updated.Status),
			Message:   fmt.Sprintf("Your partner marked the session for %q as complete.", updated.Skill),
		})
		return updated, nil
	}

	observability.CreditsTransferred.Inc()
	log.Info().
		Str("session_id", sessionID.String()).
		Str("learner_id", updated.LearnerID.String()).
		Str("teacher_id", updated.TeacherID.String()).
		Msg("session settled, 1 credit transferred")

	done := notifications.SessionUpdate{
		SessionID: updated.ID,
		Status:    string(updated.Status),
		Message:   fmt.Sprintf("Session for %q complete! 1 credit transferred.", updated.Skill),
	}
	s.notifier.Notify(updated.LearnerID, notifications.EventSessionUpdate, done)
	s.notifier.Notify(updated.TeacherID, notifications.EventSessionUpdate, done)
	return updated, nil
}

// DisputeSession freezes an accepted session. Disputed is terminal: no
// further completion is accepted and no credit moves.
func (s *SettlementService) DisputeSession(ctx context.Context, sessionID, partyID uuid.UUID, reason string) (*models.Session, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrInvalidDispute
	}

	var updated *models.Session
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		session, err := tx.Sessions().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return sessionErr(err)
		}
		if session.Status != models.SessionAccepted {
			return ErrInvalidState
		}
		if !session.IsParticipant(partyID) {
			return ErrNotAuthorized
		}

		session.Status = models.SessionDisputed
		session.DisputedBy = &partyID
		session.DisputeReason = &reason
		updated, err = tx.Sessions().Update(ctx, session)
		return err
	})
	if err != nil {
		observability.SettlementErrors.WithLabelValues("dispute").Inc()
		return nil, err
	}

	observability.SessionDisputes.Inc()
	log.Warn().Str("session_id", sessionID.String()).Str("disputed_by", partyID.String()).Msg("session disputed")

	s.notifier.Notify(updated.Counterpart(partyID), notifications.EventSessionUpdate, notifications.SessionUpdate{
		SessionID: updated.ID,
		Status:    string(updated.Status),
		Message:   fmt.Sprintf("The session for %q was disputed by your partner.", updated.Skill),
	})
	return updated, nil
}

// GetSession returns a session visible to userID.
func (s *SettlementService) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	session, err := s.store.Sessions().FindByID(ctx, sessionID)
	if err != nil {
		return nil, sessionErr(err)
	}
	if !session.IsParticipant(userID) {
		return nil, ErrNotAuthorized
	}
	return session, nil
}

func (s *SettlementService) IncomingProposals(ctx context.Context, teacherID uuid.UUID) ([]models.Session, error) {
	return s.store.Sessions().ListIncoming(ctx, teacherID)
}

func (s *SettlementService) SessionsWith(ctx context.Context, userID, partnerID uuid.UUID) ([]models.Session, error) {
	return s.store.Sessions().ListBetween(ctx, userID, partnerID, recentSessionsLimit)
}

func (s *SettlementService) SessionsFor(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return s.store.Sessions().ListForUser(ctx, userID)
}

func sessionErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

func userErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func publicUser(u *models.User) *models.User {
	return &models.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Rating:    u.Rating,
	}
}
