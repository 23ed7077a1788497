package store

import (
	"context"
	"sort"

	"github.com/brainbarter/brain_barter/models"
	"github.com/google/uuid"
)

type memMatches struct {
	view *memView
}

func (m memMatches) CreateRequest(ctx context.Context, request *models.MatchRequest) error {
	return m.view.run(func(d *memData) error {
		if request.ID == uuid.Nil {
			request.ID = uuid.New()
		}
		if _, taken := d.requests[request.ID]; taken {
			return ErrDuplicate
		}
		if request.Status == "" {
			request.Status = models.MatchPending
		}
		if request.CreatedAt.IsZero() {
			request.CreatedAt = m.view.store.now()
		}
		cp := *request
		d.requests[request.ID] = &cp
		return nil
	})
}

func (m memMatches) HasPendingRequest(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	var found bool
	err := m.view.run(func(d *memData) error {
		for _, r := range d.requests {
			if r.SenderID == senderID && r.RecipientID == recipientID && r.Status == models.MatchPending {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (m memMatches) ListRequests(ctx context.Context, userID uuid.UUID, incoming bool) ([]models.MatchRequest, error) {
	var out []models.MatchRequest
	err := m.view.run(func(d *memData) error {
		for _, r := range d.requests {
			owner := r.SenderID
			if incoming {
				owner = r.RecipientID
			}
			if owner == userID && r.Status == models.MatchPending {
				out = append(out, *r)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (m memMatches) FindRequestForUpdate(ctx context.Context, id uuid.UUID) (*models.MatchRequest, error) {
	var out *models.MatchRequest
	err := m.view.run(func(d *memData) error {
		r, ok := d.requests[id]
		if !ok {
			return ErrNotFound
		}
		cp := *r
		out = &cp
		return nil
	})
	return out, err
}

func (m memMatches) SetRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.view.run(func(d *memData) error {
		r, ok := d.requests[id]
		if !ok {
			return ErrNotFound
		}
		r.Status = status
		return nil
	})
}

// AddPair leaves an existing direction untouched, like the unique index
// on (user_id, partner_id) with ON CONFLICT DO NOTHING.
func (m memMatches) AddPair(ctx context.Context, forward, reverse models.Match) error {
	return m.view.run(func(d *memData) error {
		now := m.view.store.now()
		for _, match := range []models.Match{forward, reverse} {
			key := matchKey{match.UserID, match.PartnerID}
			if _, exists := d.matches[key]; exists {
				continue
			}
			if match.ID == uuid.Nil {
				match.ID = uuid.New()
			}
			if match.AcceptedAt.IsZero() {
				match.AcceptedAt = now
			}
			match.Partner = nil
			d.matches[key] = match
		}
		return nil
	})
}

func (m memMatches) Mutual(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var mutual bool
	err := m.view.run(func(d *memData) error {
		_, forward := d.matches[matchKey{a, b}]
		_, reverse := d.matches[matchKey{b, a}]
		mutual = forward && reverse
		return nil
	})
	return mutual, err
}

type memMessages struct {
	view *memView
}

func (m memMessages) Create(ctx context.Context, message *models.Message) error {
	return m.view.run(func(d *memData) error {
		if message.ID == uuid.Nil {
			message.ID = uuid.New()
		}
		if message.Timestamp.IsZero() {
			message.Timestamp = m.view.store.now()
		}
		if message.Type == "" {
			message.Type = "text"
		}
		d.messages = append(d.messages, copyMessage(*message))
		return nil
	})
}

func (m memMessages) Between(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	err := m.view.run(func(d *memData) error {
		for _, msg := range d.messages {
			if (msg.SenderID == a && msg.RecipientID == b) || (msg.SenderID == b && msg.RecipientID == a) {
				out = append(out, copyMessage(msg))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, err
}

func copyMessage(m models.Message) models.Message {
	if m.FileURL != nil {
		url := *m.FileURL
		m.FileURL = &url
	}
	return m
}
