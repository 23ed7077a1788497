package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brainbarter/brain_barter/models"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Transactions hold one mutex for
// their whole duration and work on a copy that replaces the live data only
// on success, so they are serializable and roll back cleanly.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
	now  func() time.Time
}

type memData struct {
	users    map[uuid.UUID]*models.User
	sessions map[uuid.UUID]*models.Session
	requests map[uuid.UUID]*models.MatchRequest
	matches  map[matchKey]models.Match
	messages []models.Message
}

// matchKey is one direction of a match: (user, partner).
type matchKey [2]uuid.UUID

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memData{
			users:    make(map[uuid.UUID]*models.User),
			sessions: make(map[uuid.UUID]*models.Session),
			requests: make(map[uuid.UUID]*models.MatchRequest),
			matches:  make(map[matchKey]models.Match),
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used for CreatedAt/UpdatedAt.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Users() UserStore       { return &memView{store: s} }
func (s *MemoryStore) Sessions() SessionStore { return &memView{store: s} }
func (s *MemoryStore) Matches() MatchStore     { return memMatches{view: &memView{store: s}} }
func (s *MemoryStore) Messages() MessageStore  { return memMessages{view: &memView{store: s}} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(memTx{view: &memView{store: s, tx: work}}); err != nil {
		return err
	}
	s.data = work
	return nil
}

type memTx struct {
	view *memView
}

func (t memTx) Users() UserStore       { return t.view }
func (t memTx) Sessions() SessionStore { return t.view }
func (t memTx) Matches() MatchStore     { return memMatches{view: t.view} }
func (t memTx) Messages() MessageStore  { return memMessages{view: t.view} }

// memView serves both the user and the session contract. Outside a
// transaction every call takes the store lock; inside one the lock is
// already held and calls go straight to the transaction's copy.
type memView struct {
	store *MemoryStore
	tx    *memData
}

func (v *memView) run(fn func(d *memData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}

func (v *memView) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := v.run(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (v *memView) AdjustCredits(ctx context.Context, id uuid.UUID, delta int) error {
	return v.run(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		u.Credits += delta
		u.UpdatedAt = v.store.now()
		return nil
	})
}

func (v *memView) AppendReview(ctx context.Context, userID uuid.UUID, review *models.Review) (*models.User, error) {
	var out *models.User
	err := v.run(func(d *memData) error {
		u, ok := d.users[userID]
		if !ok {
			return ErrNotFound
		}
		for _, r := range u.Reviews {
			if r.SessionID == review.SessionID && r.FromUserID == review.FromUserID {
				return ErrDuplicate
			}
		}
		review.RevieweeID = userID
		if review.ID == uuid.Nil {
			review.ID = uuid.New()
		}
		if review.CreatedAt.IsZero() {
			review.CreatedAt = v.store.now()
		}
		u.Reviews = append(u.Reviews, *review)
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (v *memView) SetRating(ctx context.Context, id uuid.UUID, rating float64) error {
	return v.run(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		u.Rating = rating
		return nil
	})
}

func (v *memView) CreateUser(ctx context.Context, user *models.User) error {
	return v.run(func(d *memData) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, user.Email) {
				return ErrDuplicate
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if _, taken := d.users[user.ID]; taken {
			return ErrDuplicate
		}
		// Mirrors the column default applied to a zero balance.
		if user.Credits == 0 {
			user.Credits = models.StartingCredits
		}
		now := v.store.now()
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = copyUser(user)
		return nil
	})
}

func (v *memView) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := v.run(func(d *memData) error {
		for _, u := range d.users {
			if u.Email == email {
				out = copyUser(u)
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (v *memView) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return v.run(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.UpdatedAt = v.store.now()
		return nil
	})
}

func (v *memView) UpdateSkills(ctx context.Context, id uuid.UUID, skills, skillsWanted []string) (*models.User, error) {
	var out *models.User
	err := v.run(func(d *memData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		u.Skills = append([]string(nil), skills...)
		u.SkillsWanted = append([]string(nil), skillsWanted...)
		u.UpdatedAt = v.store.now()
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (v *memView) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return v.run(func(d *memData) error {
		if _, ok := d.users[id]; !ok {
			return ErrNotFound
		}
		delete(d.users, id)
		return nil
	})
}

func (v *memView) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	var out *models.Session
	err := v.run(func(d *memData) error {
		if session.Status == "" {
			session.Status = models.SessionPending
		}
		if session.Status == models.SessionPending {
			for _, s := range d.sessions {
				if s.Status == models.SessionPending && s.LearnerID == session.LearnerID &&
					s.TeacherID == session.TeacherID && s.Skill == session.Skill {
					return ErrDuplicate
				}
			}
		}
		if session.ID == uuid.Nil {
			session.ID = uuid.New()
		}
		now := v.store.now()
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now
		d.sessions[session.ID] = copySession(session)
		out = copySession(session)
		return nil
	})
	return out, err
}

func (v *memView) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var out *models.Session
	err := v.run(func(d *memData) error {
		s, ok := d.sessions[id]
		if !ok {
			return ErrNotFound
		}
		out = copySession(s)
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no extra locking: transactions already hold the
// store mutex.
func (v *memView) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return v.FindByID(ctx, id)
}

func (v *memView) FindPending(ctx context.Context, learnerID, teacherID uuid.UUID, skill string) (*models.Session, error) {
	var out *models.Session
	err := v.run(func(d *memData) error {
		for _, s := range d.sessions {
			if s.Status == models.SessionPending && s.LearnerID == learnerID &&
				s.TeacherID == teacherID && s.Skill == skill {
				out = copySession(s)
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (v *memView) Update(ctx context.Context, session *models.Session) (*models.Session, error) {
	var out *models.Session
	err := v.run(func(d *memData) error {
		if _, ok := d.sessions[session.ID]; !ok {
			return ErrNotFound
		}
		session.UpdatedAt = v.store.now()
		stored := copySession(session)
		stored.Learner, stored.Teacher = nil, nil
		d.sessions[session.ID] = stored
		out = copySession(session)
		return nil
	})
	return out, err
}

func (v *memView) ListIncoming(ctx context.Context, teacherID uuid.UUID) ([]models.Session, error) {
	return v.list(func(s *models.Session) bool {
		return s.TeacherID == teacherID && s.Status == models.SessionPending
	}, true, 0)
}

func (v *memView) ListBetween(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]models.Session, error) {
	return v.list(func(s *models.Session) bool {
		return (s.LearnerID == userID && s.TeacherID == partnerID) ||
			(s.LearnerID == partnerID && s.TeacherID == userID)
	}, true, limit)
}

func (v *memView) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return v.list(func(s *models.Session) bool {
		return s.IsParticipant(userID)
	}, true, 0)
}

func (v *memView) ListStalePending(ctx context.Context, createdBefore time.Time) ([]models.Session, error) {
	sessions, err := v.list(func(s *models.Session) bool {
		return s.Status == models.SessionPending && s.CreatedAt.Before(createdBefore)
	}, false, 0)
	return sessions, err
}

// list returns matching sessions ordered by CreatedAt (newest first when
// desc) with the learner and teacher attached.
func (v *memView) list(keep func(*models.Session) bool, desc bool, limit int) ([]models.Session, error) {
	var out []models.Session
	err := v.run(func(d *memData) error {
		for _, s := range d.sessions {
			if !keep(s) {
				continue
			}
			cp := copySession(s)
			if u, ok := d.users[s.LearnerID]; ok {
				cp.Learner = stripUser(u)
			}
			if u, ok := d.users[s.TeacherID]; ok {
				cp.Teacher = stripUser(u)
			}
			out = append(out, *cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (d *memData) clone() *memData {
	c := &memData{
		users:    make(map[uuid.UUID]*models.User, len(d.users)),
		sessions: make(map[uuid.UUID]*models.Session, len(d.sessions)),
		requests: make(map[uuid.UUID]*models.MatchRequest, len(d.requests)),
		matches:  make(map[matchKey]models.Match, len(d.matches)),
		messages: make([]models.Message, 0, len(d.messages)),
	}
	for id, u := range d.users {
		c.users[id] = copyUser(u)
	}
	for id, s := range d.sessions {
		c.sessions[id] = copySession(s)
	}
	for id, r := range d.requests {
		cp := *r
		c.requests[id] = &cp
	}
	for k, m := range d.matches {
		c.matches[k] = m
	}
	for _, m := range d.messages {
		c.messages = append(c.messages, copyMessage(m))
	}
	return c
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Skills = append([]string(nil), u.Skills...)
	cp.SkillsWanted = append([]string(nil), u.SkillsWanted...)
	cp.Reviews = append([]models.Review(nil), u.Reviews...)
	if u.Username != nil {
		name := *u.Username
		cp.Username = &name
	}
	return &cp
}

// stripUser copies a user for embedding in another record.
func stripUser(u *models.User) *models.User {
	cp := copyUser(u)
	cp.Reviews = nil
	cp.PasswordHash = ""
	return cp
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	if s.DisputedBy != nil {
		id := *s.DisputedBy
		cp.DisputedBy = &id
	}
	if s.DisputeReason != nil {
		reason := *s.DisputeReason
		cp.DisputeReason = &reason
	}
	return &cp
}
