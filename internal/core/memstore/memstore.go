// Package memstore provides an in-memory domain.Store for tests and local
// development without Postgres. It mirrors the storage semantics that the
// logic layer relies on: the unique username constraint, cascade delete from
// users, and expired-session filtering at lookup.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tdnguyen/auth-service/internal/core/domain"
)

// Store implements domain.Store with maps behind one mutex.
type Store struct {
	mu          sync.Mutex
	users       map[uuid.UUID]domain.User
	credentials map[uuid.UUID]domain.Credential
	sessions    map[uuid.UUID]sessionRecord
	things      map[uuid.UUID]domain.Thing
}

// sessionRecord keeps the owner by id; the owner is joined at read time,
// like the SQL implementation does.
type sessionRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ExpireDate time.Time
	domain.Timestamps
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]domain.User),
		credentials: make(map[uuid.UUID]domain.Credential),
		sessions:    make(map[uuid.UUID]sessionRecord),
		things:      make(map[uuid.UUID]domain.Thing),
	}
}

func (s *Store) Users() domain.UserRepository             { return &userRepo{s} }
func (s *Store) Credentials() domain.CredentialRepository { return &credentialRepo{s} }
func (s *Store) Sessions() domain.SessionRepository       { return &sessionRepo{s} }
func (s *Store) Things() domain.ThingRepository           { return &thingRepo{s} }

// WithTx snapshots the maps, runs fn, and restores the snapshot when fn
// fails, which gives tests the same all-or-nothing behavior as a database
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(r domain.RepositorySet) error) error {
	s.mu.Lock()
	users := copyMap(s.users)
	credentials := copyMap(s.credentials)
	sessions := copyMap(s.sessions)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users = users
		s.credentials = credentials
		s.sessions = sessions
		s.mu.Unlock()
		return err
	}
	return nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stamp() domain.Timestamps {
	now := time.Now()
	return domain.Timestamps{CreateDate: now, UpdateDate: now}
}

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, domain.ErrDuplicateKey
		}
	}

	created := *user
	created.ID = uuid.New()
	created.Timestamps = stamp()
	r.s.users[created.ID] = created
	return &created, nil
}

func (r *userRepo) FindAll(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.User
	for _, u := range r.s.users {
		if matchUser(u, filter) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepo) FindOne(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if matchUser(u, filter) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, updates domain.UserUpdate) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return 0, nil
	}
	if updates.Username != nil {
		for _, other := range r.s.users {
			if other.ID != id && other.Username == *updates.Username {
				return 0, domain.ErrDuplicateKey
			}
		}
		u.Username = *updates.Username
	}
	if updates.Email != nil {
		u.Email = *updates.Email
	}
	u.UpdateDate = time.Now()
	r.s.users[id] = u
	return 1, nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return 0, nil
	}
	delete(r.s.users, id)

	// cascade
	delete(r.s.credentials, id)
	for sid, sess := range r.s.sessions {
		if sess.UserID == id {
			delete(r.s.sessions, sid)
		}
	}
	return 1, nil
}

func matchUser(u domain.User, f domain.UserFilter) bool {
	if f.ID != nil && u.ID != *f.ID {
		return false
	}
	if f.Username != nil && u.Username != *f.Username {
		return false
	}
	if f.Email != nil && u.Email != *f.Email {
		return false
	}
	return true
}

// --- credentials ---

type credentialRepo struct{ s *Store }

func (r *credentialRepo) Create(ctx context.Context, cred *domain.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.credentials[cred.UserID]; ok {
		return domain.ErrDuplicateKey
	}
	stored := *cred
	stored.Timestamps = stamp()
	r.s.credentials[cred.UserID] = stored
	return nil
}

func (r *credentialRepo) Update(ctx context.Context, userID uuid.UUID, salt, hash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.credentials[userID]
	if !ok {
		return 0, nil
	}
	c.Salt = salt
	c.Hash = hash
	c.UpdateDate = time.Now()
	r.s.credentials[userID] = c
	return 1, nil
}

func (r *credentialRepo) FindByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == username {
			if c, ok := r.s.credentials[u.ID]; ok {
				return &c, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := sessionRecord{
		ID:         uuid.New(),
		UserID:     session.User.ID,
		ExpireDate: session.ExpireDate,
		Timestamps: stamp(),
	}
	r.s.sessions[rec.ID] = rec

	user := r.s.users[rec.UserID]
	return &domain.Session{
		ID:         rec.ID,
		User:       user,
		ExpireDate: rec.ExpireDate,
		Timestamps: rec.Timestamps,
	}, nil
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.sessions[id]
	if !ok || !rec.ExpireDate.After(time.Now()) {
		return nil, nil
	}
	user, ok := r.s.users[rec.UserID]
	if !ok {
		return nil, nil
	}
	return &domain.Session{
		ID:         rec.ID,
		User:       user,
		ExpireDate: rec.ExpireDate,
		Timestamps: rec.Timestamps,
	}, nil
}

func (r *sessionRepo) ExtendExpiration(ctx context.Context, id uuid.UUID, expireDate time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.sessions[id]
	if !ok || !rec.ExpireDate.After(time.Now()) {
		return 0, nil
	}
	rec.ExpireDate = expireDate
	rec.UpdateDate = time.Now()
	r.s.sessions[id] = rec
	return 1, nil
}

func (r *sessionRepo) DeleteByOwner(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for sid, rec := range r.s.sessions {
		if rec.UserID == userID {
			delete(r.s.sessions, sid)
			n++
		}
	}
	return n, nil
}

// --- things ---

type thingRepo struct{ s *Store }

func (r *thingRepo) Create(ctx context.Context, thing *domain.Thing) (*domain.Thing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	created := *thing
	created.ID = uuid.New()
	created.Timestamps = stamp()
	r.s.things[created.ID] = created
	return &created, nil
}

func (r *thingRepo) FindAll(ctx context.Context) ([]domain.Thing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Thing, 0, len(r.s.things))
	for _, t := range r.s.things {
		out = append(out, t)
	}
	return out, nil
}

func (r *thingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Thing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.things[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *thingRepo) Update(ctx context.Context, id uuid.UUID, updates domain.ThingUpdateRequest) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.things[id]
	if !ok {
		return 0, nil
	}
	if updates.Name != nil {
		t.Name = *updates.Name
	}
	if updates.Description != nil {
		t.Description = updates.Description
	}
	t.UpdateDate = time.Now()
	r.s.things[id] = t
	return 1, nil
}

func (r *thingRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.things[id]; !ok {
		return 0, nil
	}
	delete(r.s.things, id)
	return 1, nil
}
