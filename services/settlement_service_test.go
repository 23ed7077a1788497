package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Notify(userID uuid.UUID, kind notifications.EventKind, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notifications.Event{UserID: userID, Kind: kind, Payload: payload})
}

func (r *recordingNotifier) eventsFor(userID uuid.UUID) []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifications.Event
	for _, ev := range r.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *store.MemoryStore
	notifier *recordingNotifier
	svc      *SettlementService
	learner  *models.User
	teacher  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    store.NewMemoryStore(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewSettlementService(f.store, f.notifier)
	f.learner = f.addUser(t, "Lena", "lena@example.com")
	f.teacher = f.addUser(t, "Tom", "tom@example.com")
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	u := &models.User{FirstName: name, LastName: "Doe", Email: email, PasswordHash: "x", Credits: models.StartingCredits}
	require.NoError(t, f.store.Users().CreateUser(f.ctx, u))
	return u
}

func (f *fixture) user(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	u, err := f.store.Users().GetUser(f.ctx, id)
	require.NoError(t, err)
	return u
}

func (f *fixture) accepted(t *testing.T, skill string) *models.Session {
	t.Helper()
	s, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, skill)
	require.NoError(t, err)
	s, err = f.svc.RespondToSession(f.ctx, s.ID, f.teacher.ID, DecisionAccept)
	require.NoError(t, err)
	return s
}

func TestSettlementScenario(t *testing.T) {
	f := newFixture(t)

	// Scenario 1: proposal.
	session, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Guitar")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, session.Status)
	assert.False(t, session.LearnerCompleted)
	assert.False(t, session.TeacherCompleted)
	assert.Equal(t, models.StartingCredits, f.user(t, f.learner.ID).Credits, "no credit is taken at proposal")

	teacherEvents := f.notifier.eventsFor(f.teacher.ID)
	require.Len(t, teacherEvents, 1)
	assert.Equal(t, notifications.EventNewSessionProposal, teacherEvents[0].Kind)
	notice := teacherEvents[0].Payload.(ProposalNotice)
	assert.Equal(t, "Lena Doe", notice.LearnerName)
	assert.Equal(t, session.ID, notice.Session.ID)

	// Scenario 2: teacher accepts.
	session, err = f.svc.RespondToSession(f.ctx, session.ID, f.teacher.ID, DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.SessionAccepted, session.Status)
	require.Len(t, f.notifier.eventsFor(f.learner.ID), 1)

	// Scenario 3: learner completes first.
	session, err = f.svc.CompleteSession(f.ctx, session.ID, f.learner.ID, 5, "great teacher")
	require.NoError(t, err)
	assert.True(t, session.LearnerCompleted)
	assert.False(t, session.TeacherCompleted)
	assert.Equal(t, models.SessionAccepted, session.Status)

	teacher := f.user(t, f.teacher.ID)
	require.Len(t, teacher.Reviews, 1)
	assert.Equal(t, 5, teacher.Reviews[0].Rating)
	assert.Equal(t, f.learner.ID, teacher.Reviews[0].FromUserID)
	assert.Equal(t, session.ID, teacher.Reviews[0].SessionID)
	assert.Equal(t, 5.0, teacher.Rating)
	assert.Equal(t, models.StartingCredits, teacher.Credits)

	// Scenario 4: teacher completes and the session settles.
	session, err = f.svc.CompleteSession(f.ctx, session.ID, f.teacher.ID, 4, "")
	require.NoError(t, err)
	assert.True(t, session.TeacherCompleted)
	assert.Equal(t, models.SessionCompleted, session.Status)

	learner := f.user(t, f.learner.ID)
	require.Len(t, learner.Reviews, 1)
	assert.Equal(t, 4, learner.Reviews[0].Rating)
	assert.Equal(t, 4.0, learner.Rating)
	assert.Equal(t, models.StartingCredits-1, learner.Credits)
	assert.Equal(t, models.StartingCredits+1, f.user(t, f.teacher.ID).Credits)

	// Scenario 5: either party completing again is rejected and nothing moves.
	_, err = f.svc.CompleteSession(f.ctx, session.ID, f.learner.ID, 5, "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	_, err = f.svc.CompleteSession(f.ctx, session.ID, f.teacher.ID, 5, "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	assert.Equal(t, models.StartingCredits-1, f.user(t, f.learner.ID).Credits)
	teacher = f.user(t, f.teacher.ID)
	assert.Equal(t, models.StartingCredits+1, teacher.Credits)
	assert.Len(t, teacher.Reviews, 1)
}

func TestProposeSessionErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.learner.ID, "Guitar")
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidProposal)

	_, err = f.svc.ProposeSession(f.ctx, f.learner.ID, uuid.New(), "Guitar")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Guitar")
	require.NoError(t, err)
	_, err = f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Guitar")
	assert.ErrorIs(t, err, ErrDuplicateProposal)

	broke := f.addUser(t, "Bo", "bo@example.com")
	require.NoError(t, f.store.Users().AdjustCredits(f.ctx, broke.ID, -models.StartingCredits))
	_, err = f.svc.ProposeSession(f.ctx, broke.ID, f.teacher.ID, "Guitar")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestProposeAgainAfterRejection(t *testing.T) {
	f := newFixture(t)

	s, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Chess")
	require.NoError(t, err)
	_, err = f.svc.RespondToSession(f.ctx, s.ID, f.teacher.ID, DecisionReject)
	require.NoError(t, err)

	_, err = f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Chess")
	assert.NoError(t, err)
}

func TestRespondToSessionErrors(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Guitar")
	require.NoError(t, err)

	_, err = f.svc.RespondToSession(f.ctx, uuid.New(), f.teacher.ID, DecisionAccept)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.RespondToSession(f.ctx, s.ID, f.learner.ID, DecisionAccept)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.RespondToSession(f.ctx, s.ID, f.teacher.ID, Decision("maybe"))
	assert.ErrorIs(t, err, ErrInvalidDecision)

	rejected, err := f.svc.RespondToSession(f.ctx, s.ID, f.teacher.ID, DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRejected, rejected.Status)

	_, err = f.svc.RespondToSession(f.ctx, s.ID, f.teacher.ID, DecisionAccept)
	assert.ErrorIs(t, err, ErrInvalidState, "rejected is final")

	stored, err := f.svc.GetSession(f.ctx, s.ID, f.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionRejected, stored.Status)
}

func TestCompleteSessionErrors(t *testing.T) {
	f := newFixture(t)

	pending, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Piano")
	require.NoError(t, err)
	_, err = f.svc.CompleteSession(f.ctx, pending.ID, f.learner.ID, 5, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.CompleteSession(f.ctx, uuid.New(), f.learner.ID, 5, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := f.accepted(t, "Guitar")

	outsider := f.addUser(t, "Olga", "olga@example.com")
	_, err = f.svc.CompleteSession(f.ctx, s.ID, outsider.ID, 5, "")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	for _, rating := range []int{0, 6, -1} {
		_, err = f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, rating, "")
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
	assert.Equal(t, models.StartingCredits, f.user(t, f.learner.ID).Credits)
	assert.Empty(t, f.user(t, f.teacher.ID).Reviews, "failed completions leave no review behind")

	_, err = f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, 3, "")
	require.NoError(t, err)
	_, err = f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, 3, "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Len(t, f.user(t, f.teacher.ID).Reviews, 1)
}

func TestTeacherMayCompleteFirst(t *testing.T) {
	f := newFixture(t)
	s := f.accepted(t, "Guitar")

	s, err := f.svc.CompleteSession(f.ctx, s.ID, f.teacher.ID, 2, "late")
	require.NoError(t, err)
	assert.Equal(t, models.SessionAccepted, s.Status)
	assert.Equal(t, models.StartingCredits, f.user(t, f.learner.ID).Credits)

	s, err = f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, 4, "")
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, s.Status)
	assert.Equal(t, models.StartingCredits-1, f.user(t, f.learner.ID).Credits)
	assert.Equal(t, models.StartingCredits+1, f.user(t, f.teacher.ID).Credits)

	// One settlement message per party, plus the teacher's earlier confirmation.
	var settled int
	for _, ev := range f.notifier.events {
		if u, ok := ev.Payload.(notifications.SessionUpdate); ok && u.Status == string(models.SessionCompleted) {
			settled++
		}
	}
	assert.Equal(t, 2, settled)
}

func TestRatingIsMeanOfAllReviews(t *testing.T) {
	f := newFixture(t)

	for i, rating := range []int{5, 4, 4} {
		s, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, []string{"a", "b", "c"}[i])
		require.NoError(t, err)
		_, err = f.svc.RespondToSession(f.ctx, s.ID, f.teacher.ID, DecisionAccept)
		require.NoError(t, err)
		_, err = f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, rating, "")
		require.NoError(t, err)
	}

	teacher := f.user(t, f.teacher.ID)
	require.Len(t, teacher.Reviews, 3)
	assert.Equal(t, 4.3, teacher.Rating)
	assert.Equal(t, AverageRating(teacher.Reviews), teacher.Rating)
}

func TestConcurrentCompletionSettlesOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		s := f.accepted(t, "Guitar")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, party := range []uuid.UUID{f.learner.ID, f.teacher.ID} {
			wg.Add(1)
			go func(j int, party uuid.UUID) {
				defer wg.Done()
				_, errs[j] = f.svc.CompleteSession(f.ctx, s.ID, party, 5, "")
			}(j, party)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		final, err := f.svc.GetSession(f.ctx, s.ID, f.learner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, final.Status)
		assert.Equal(t, models.StartingCredits-1, f.user(t, f.learner.ID).Credits)
		assert.Equal(t, models.StartingCredits+1, f.user(t, f.teacher.ID).Credits)
	}
}

func TestConcurrentDuplicateCompletionByOneParty(t *testing.T) {
	f := newFixture(t)
	s := f.accepted(t, "Guitar")

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, 5, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, already int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyCompleted):
			already++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, already)
	assert.Len(t, f.user(t, f.teacher.ID).Reviews, 1)
}

func TestDisputeSession(t *testing.T) {
	f := newFixture(t)

	pending, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Piano")
	require.NoError(t, err)
	_, err = f.svc.DisputeSession(f.ctx, pending.ID, f.learner.ID, "no show")
	assert.ErrorIs(t, err, ErrInvalidState)

	s := f.accepted(t, "Guitar")

	_, err = f.svc.DisputeSession(f.ctx, s.ID, f.learner.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidDispute)

	outsider := f.addUser(t, "Olga", "olga@example.com")
	_, err = f.svc.DisputeSession(f.ctx, s.ID, outsider.ID, "spam")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.CompleteSession(f.ctx, s.ID, f.teacher.ID, 5, "")
	require.NoError(t, err)

	disputed, err := f.svc.DisputeSession(f.ctx, s.ID, f.learner.ID, "teacher never showed up")
	require.NoError(t, err)
	assert.Equal(t, models.SessionDisputed, disputed.Status)
	require.NotNil(t, disputed.DisputedBy)
	assert.Equal(t, f.learner.ID, *disputed.DisputedBy)

	_, err = f.svc.CompleteSession(f.ctx, s.ID, f.learner.ID, 1, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.CompleteSession(f.ctx, s.ID, f.teacher.ID, 1, "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Equal(t, models.StartingCredits, f.user(t, f.learner.ID).Credits)
	assert.Equal(t, models.StartingCredits, f.user(t, f.teacher.ID).Credits)

	last := f.notifier.eventsFor(f.teacher.ID)
	assert.Equal(t, string(models.SessionDisputed), last[len(last)-1].Payload.(notifications.SessionUpdate).Status)
}

func TestSessionListings(t *testing.T) {
	f := newFixture(t)
	other := f.addUser(t, "Otto", "otto@example.com")

	_, err := f.svc.ProposeSession(f.ctx, f.learner.ID, f.teacher.ID, "Guitar")
	require.NoError(t, err)
	_, err = f.svc.ProposeSession(f.ctx, other.ID, f.teacher.ID, "Drums")
	require.NoError(t, err)

	incoming, err := f.svc.IncomingProposals(f.ctx, f.teacher.ID)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	with, err := f.svc.SessionsWith(f.ctx, f.teacher.ID, other.ID)
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, "Drums", with[0].Skill)

	mine, err := f.svc.SessionsFor(f.ctx, f.learner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.GetSession(f.ctx, with[0].ID, f.learner.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}
