package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recorder) Notify(userID uuid.UUID, kind notifications.EventKind, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notifications.Event{UserID: userID, Kind: kind, Payload: payload})
}

func TestPendingProposalReminder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	st.SetClock(func() time.Time { return clock })

	users := make([]*models.User, 4)
	for i := range users {
		users[i] = &models.User{FirstName: "U", LastName: "X", Email: uuid.NewString() + "@example.com", PasswordHash: "x"}
		require.NoError(t, st.Users().CreateUser(ctx, users[i]))
	}
	learner, teacherA, teacherB, teacherC := users[0], users[1], users[2], users[3]

	propose := func(teacher *models.User, skill string, status models.SessionStatus) {
		_, err := st.Sessions().Create(ctx, &models.Session{LearnerID: learner.ID, TeacherID: teacher.ID, Skill: skill, Status: status})
		require.NoError(t, err)
	}
	propose(teacherA, "Guitar", models.SessionPending)
	propose(teacherA, "Chess", models.SessionPending)
	propose(teacherB, "Piano", models.SessionAccepted)

	clock = start.Add(30 * time.Hour)
	propose(teacherC, "Yoga", models.SessionPending)

	rec := &recorder{}
	job := &PendingProposalReminder{
		Store:    st,
		Notifier: rec,
		After:    24 * time.Hour,
		Now:      func() time.Time { return clock },
	}

	sent, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, teacherA.ID, ev.UserID)
	assert.Equal(t, notifications.EventSessionReminder, ev.Kind)
	assert.Equal(t, 2, ev.Payload.(PendingReminder).Count)

	pending, err := st.Sessions().ListIncoming(ctx, teacherA.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "reminders never expire proposals")
}

func TestPendingProposalReminderNothingStale(t *testing.T) {
	rec := &recorder{}
	job := &PendingProposalReminder{Store: store.NewMemoryStore(), Notifier: rec, After: time.Hour}

	sent, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, rec.events)
}
