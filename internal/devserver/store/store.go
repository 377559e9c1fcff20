// Package store holds the dev server's in-memory state: users,
// connection records and refresh tokens. It exists so the client has a
// faithful collaborator to run against in development and integration
// tests; nothing here survives a restart.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avetrov/DevConnect/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound means the referenced record does not exist or does not
	// involve the acting user.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the record is already in a state that makes the
	// operation invalid.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials means email/password authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// connection is a directed relationship record. At most one record
// exists per unordered user pair.
type connection struct {
	id        string
	fromID    string
	toID      string
	status    models.ConnectionStatus
	createdAt time.Time
}

// userRecord pairs a profile with its password hash.
type userRecord struct {
	user models.User
	hash []byte
}

// Store is the guarded in-memory state. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	users   map[string]*userRecord // user id → record
	byEmail map[string]string      // email → user id
	conns   map[string]*connection // connection id → record
	refresh map[string]string      // refresh-token hash → user id
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]*userRecord),
		byEmail: make(map[string]string),
		conns:   make(map[string]*connection),
		refresh: make(map[string]string),
	}
}

// CreateUser registers a user with the given password and returns the
// stored profile with its minted id. Duplicate emails conflict.
func (s *Store) CreateUser(user models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return models.User{}, ErrConflict
	}
	user.ID = uuid.NewString()
	s.users[user.ID] = &userRecord{user: user, hash: hash}
	s.byEmail[user.Email] = user.ID
	return user, nil
}

// Authenticate verifies email/password and returns the matching user.
func (s *Store) Authenticate(email, password string) (models.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.Unlock()

	if rec == nil {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return rec.user, nil
}

// UserByID returns the profile for the given user id.
func (s *Store) UserByID(id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return rec.user, nil
}

// UpdateProfile applies the non-zero fields of update to the user's
// profile and returns the updated record.
func (s *Store) UpdateProfile(id string, update models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}

	u := &rec.user
	if update.FirstName != "" {
		u.FirstName = update.FirstName
	}
	if update.LastName != "" {
		u.LastName = update.LastName
	}
	if update.Bio != "" {
		u.Bio = update.Bio
	}
	if update.Age != 0 {
		u.Age = update.Age
	}
	if update.Gender != "" {
		u.Gender = update.Gender
	}
	if len(update.Skills) > 0 {
		u.Skills = update.Skills
	}
	if update.Location != "" {
		u.Location = update.Location
	}
	if update.CurrentPosition != "" {
		u.CurrentPosition = update.CurrentPosition
	}
	if update.CurrentOrganisation != "" {
		u.CurrentOrganisation = update.CurrentOrganisation
	}
	if update.GithubURL != "" {
		u.GithubURL = update.GithubURL
	}
	if update.LinkedinURL != "" {
		u.LinkedinURL = update.LinkedinURL
	}
	if update.PortfolioURL != "" {
		u.PortfolioURL = update.PortfolioURL
	}
	if update.ProfilePhoto != "" {
		u.ProfilePhoto = update.ProfilePhoto
	}
	return rec.user, nil
}

// Suggestions lists users the given user could connect with: everyone
// except themselves and anyone they already share a record with.
func (s *Store) Suggestions(selfID string) []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	related := make(map[string]bool)
	for _, c := range s.conns {
		if c.fromID == selfID {
			related[c.toID] = true
		}
		if c.toID == selfID {
			related[c.fromID] = true
		}
	}

	var out []models.User
	for id, rec := range s.users {
		if id == selfID || related[id] {
			continue
		}
		out = append(out, rec.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// pairRecord returns the existing record between two users, if any.
// Caller holds the lock.
func (s *Store) pairRecord(a, b string) *connection {
	for _, c := range s.conns {
		if (c.fromID == a && c.toID == b) || (c.fromID == b && c.toID == a) {
			return c
		}
	}
	return nil
}

// SendRequest creates a pending request from fromID to toID. A request
// to oneself, to an unknown user, or to a user the sender already shares
// a record with is rejected.
func (s *Store) SendRequest(fromID, toID string) (models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fromID == toID {
		return models.ConnectionRequest{}, ErrConflict
	}
	if _, ok := s.users[toID]; !ok {
		return models.ConnectionRequest{}, ErrNotFound
	}
	if s.pairRecord(fromID, toID) != nil {
		return models.ConnectionRequest{}, ErrConflict
	}

	c := &connection{
		id:        uuid.NewString(),
		fromID:    fromID,
		toID:      toID,
		status:    models.StatusPending,
		createdAt: time.Now(),
	}
	s.conns[c.id] = c
	return s.view(c), nil
}

// Accept marks a pending request addressed to selfID as accepted.
func (s *Store) Accept(requestID, selfID string) (models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[requestID]
	if !ok || c.toID != selfID {
		return models.ConnectionRequest{}, ErrNotFound
	}
	if c.status != models.StatusPending {
		return models.ConnectionRequest{}, ErrConflict
	}
	c.status = models.StatusAccepted
	return s.view(c), nil
}

// Reject removes a pending request addressed to selfID. The counterpart
// becomes eligible for suggestions again.
func (s *Store) Reject(requestID, selfID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[requestID]
	if !ok || c.toID != selfID {
		return ErrNotFound
	}
	if c.status != models.StatusPending {
		return ErrConflict
	}
	delete(s.conns, requestID)
	return nil
}

// Cancel removes a pending request sent by selfID.
func (s *Store) Cancel(requestID, selfID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[requestID]
	if !ok || c.fromID != selfID {
		return ErrNotFound
	}
	if c.status != models.StatusPending {
		return ErrConflict
	}
	delete(s.conns, requestID)
	return nil
}

// Disconnect removes an accepted connection involving selfID.
func (s *Store) Disconnect(connectionID, selfID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[connectionID]
	if !ok || (c.fromID != selfID && c.toID != selfID) {
		return ErrNotFound
	}
	if c.status != models.StatusAccepted {
		return ErrConflict
	}
	delete(s.conns, connectionID)
	return nil
}

// Block records a block by selfID against targetID, replacing any
// existing record between the pair. Blocking twice conflicts.
func (s *Store) Block(selfID, targetID string) (models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if selfID == targetID {
		return models.ConnectionRequest{}, ErrConflict
	}
	if _, ok := s.users[targetID]; !ok {
		return models.ConnectionRequest{}, ErrNotFound
	}
	if existing := s.pairRecord(selfID, targetID); existing != nil {
		if existing.status == models.StatusBlocked {
			return models.ConnectionRequest{}, ErrConflict
		}
		delete(s.conns, existing.id)
	}

	c := &connection{
		id:        uuid.NewString(),
		fromID:    selfID,
		toID:      targetID,
		status:    models.StatusBlocked,
		createdAt: time.Now(),
	}
	s.conns[c.id] = c
	return s.view(c), nil
}

// Unblock removes a block record issued by selfID.
func (s *Store) Unblock(connectionID, selfID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[connectionID]
	if !ok || c.fromID != selfID {
		return ErrNotFound
	}
	if c.status != models.StatusBlocked {
		return ErrConflict
	}
	delete(s.conns, connectionID)
	return nil
}

// ListReceived returns pending requests addressed to selfID.
func (s *Store) ListReceived(selfID string) []models.ConnectionRequest {
	return s.list(func(c *connection) bool {
		return c.status == models.StatusPending && c.toID == selfID
	})
}

// ListSent returns pending requests sent by selfID.
func (s *Store) ListSent(selfID string) []models.ConnectionRequest {
	return s.list(func(c *connection) bool {
		return c.status == models.StatusPending && c.fromID == selfID
	})
}

// ListMutual returns accepted connections involving selfID.
func (s *Store) ListMutual(selfID string) []models.ConnectionRequest {
	return s.list(func(c *connection) bool {
		return c.status == models.StatusAccepted && (c.fromID == selfID || c.toID == selfID)
	})
}

// ListBlocked returns block records issued by selfID.
func (s *Store) ListBlocked(selfID string) []models.ConnectionRequest {
	return s.list(func(c *connection) bool {
		return c.status == models.StatusBlocked && c.fromID == selfID
	})
}

func (s *Store) list(match func(*connection) bool) []models.ConnectionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.ConnectionRequest{}
	for _, c := range s.conns {
		if match(c) {
			out = append(out, s.view(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// view materializes a connection with populated user records.
// Caller holds the lock.
func (s *Store) view(c *connection) models.ConnectionRequest {
	req := models.ConnectionRequest{
		ID:        c.id,
		Status:    c.status,
		CreatedAt: c.createdAt,
	}
	if rec, ok := s.users[c.fromID]; ok {
		req.FromUser = rec.user
	}
	if rec, ok := s.users[c.toID]; ok {
		req.ToUser = rec.user
	}
	return req
}

// SaveRefreshToken records a refresh-token hash for the user.
func (s *Store) SaveRefreshToken(hash, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[hash] = userID
}

// ConsumeRefreshToken removes and returns the user bound to the given
// refresh-token hash. Each token is single use; refresh rotates it.
func (s *Store) ConsumeRefreshToken(hash string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[hash]
	if ok {
		delete(s.refresh, hash)
	}
	return userID, ok
}
