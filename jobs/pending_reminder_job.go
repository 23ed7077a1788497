package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/brainbarter/brain_barter/notifications"
	"github.com/brainbarter/brain_barter/observability"
	"github.com/brainbarter/brain_barter/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PendingReminder is the session_reminder payload.
type PendingReminder struct {
	Count    int              `json:"count"`
	Sessions []models.Session `json:"sessions"`
	Message  string           `json:"message"`
}

// PendingProposalReminder nudges teachers whose proposals have been waiting
// longer than After. It never changes session state.
type PendingProposalReminder struct {
	Store    store.Store
	Notifier notifications.Notifier
	Mailer   *notifications.Mailer
	After    time.Duration
	Now      func() time.Time
}

// Run is the cron entry point.
func (j *PendingProposalReminder) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := j.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("pending proposal reminder failed")
	}
}

// RunOnce sends one reminder per teacher and returns how many were sent.
func (j *PendingProposalReminder) RunOnce(ctx context.Context) (int, error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	log.Debug().Msg("running job: pending proposal reminder")

	stale, err := j.Store.Sessions().ListStalePending(ctx, now().Add(-j.After))
	if err != nil {
		return 0, fmt.Errorf("list stale pending sessions: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	byTeacher := make(map[uuid.UUID][]models.Session)
	var order []uuid.UUID
	for _, s := range stale {
		if _, seen := byTeacher[s.TeacherID]; !seen {
			order = append(order, s.TeacherID)
		}
		byTeacher[s.TeacherID] = append(byTeacher[s.TeacherID], s)
	}

	for _, teacherID := range order {
		sessions := byTeacher[teacherID]
		message := fmt.Sprintf("You have %d session proposal(s) waiting for your answer.", len(sessions))
		j.Notifier.Notify(teacherID, notifications.EventSessionReminder, PendingReminder{
			Count:    len(sessions),
			Sessions: sessions,
			Message:  message,
		})

		if j.Mailer != nil {
			teacher, err := j.Store.Users().GetUser(ctx, teacherID)
			if err != nil {
				log.Warn().Err(err).Str("teacher_id", teacherID.String()).Msg("skipping reminder email")
			} else {
				j.Mailer.SendAsync(teacher.DisplayName(), teacher.Email, "Session proposals are waiting for you",
					fmt.Sprintf("<h1>Pending proposals</h1><p>%s</p>", message))
			}
		}
		observability.PendingReminders.Inc()
	}

	log.Info().Int("teachers", len(order)).Int("sessions", len(stale)).Msg("pending proposal reminders sent")
	return len(order), nil
}
