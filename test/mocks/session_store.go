package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aimd54/staff-directory/internal/models"
	"github.com/aimd54/staff-directory/internal/session"
)

// MockSessionStore is an in-memory implementation of session.Store
// Used for testing without requiring a real Redis instance
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	nextID   int

	// CreateErr makes Create fail.
	CreateErr error
	// Deleted lists the ids passed to Delete.
	Deleted []string
}

// NewMockSessionStore creates a new mock session store
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*session.Session)}
}

// Create stores a new session for user
func (m *MockSessionStore) Create(_ context.Context, user models.Employee) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextID++
	sess := &session.Session{ID: fmt.Sprintf("mock-%d", m.nextID), User: user.Clone(), CreatedAt: time.Now()}
	m.sessions[sess.ID] = sess
	out := *sess
	return &out, nil
}

// Get returns a copy of a stored session
func (m *MockSessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, exists := m.sessions[id]
	if !exists {
		return nil, session.ErrNotFound
	}
	out := *sess
	out.User = sess.User.Clone()
	return &out, nil
}

// Merge applies fields from canonical to the cached user
func (m *MockSessionStore) Merge(_ context.Context, id string, fields models.FieldSet, canonical models.Employee) (*models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.sessions[id]
	if !exists {
		return nil, session.ErrNotFound
	}
	fields.Apply(&sess.User, canonical)
	user := sess.User.Clone()
	return &user, nil
}

// Delete removes a session
func (m *MockSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

// Len returns the number of live sessions
func (m *MockSessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
