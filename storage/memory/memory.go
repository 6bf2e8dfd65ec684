// Package memory provides an in-memory implementation of the
// entitlement.UserStore contract. Primarily intended for testing and
// development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
)

// Store implements entitlement.UserStore using in-memory maps.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*entitlement.User
	byEmail map[string]string
}

// New creates a new in-memory user store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*entitlement.User),
		byEmail: make(map[string]string),
	}
}

// AddUser seeds a user record. Email lookup is case-insensitive.
func (s *Store) AddUser(user entitlement.User) error {
	if user.ID == "" || user.Email == "" {
		return fmt.Errorf("user id and email are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := user
	s.byID[u.ID] = &u
	s.byEmail[strings.ToLower(u.Email)] = u.ID
	return nil
}

// FindUserByIdentity implements entitlement.UserStore.
func (s *Store) FindUserByIdentity(ctx context.Context, identity string) (*entitlement.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(identity)]
	if !ok {
		return nil, entitlement.ErrUserNotFound
	}

	// Return a copy to prevent external mutations
	userCopy := *s.byID[id]
	return &userCopy, nil
}

// SetIsPro implements entitlement.UserStore.
func (s *Store) SetIsPro(ctx context.Context, userID string, isPro bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return entitlement.ErrUserNotFound
	}
	user.IsPro = isPro
	return nil
}

// Ledger is an in-memory billing.DeliveryLedger with a bounded retention
// window. Like Store, it exists for tests and single-process deployments;
// multi-instance deployments should use the Redis ledger.
type Ledger struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
}

// NewLedger creates a ledger that remembers event ids for retention.
func NewLedger(retention time.Duration) *Ledger {
	return &Ledger{
		seen:      make(map[string]time.Time),
		retention: retention,
	}
}

// SeenEvent implements billing.DeliveryLedger.
func (l *Ledger) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if at, ok := l.seen[eventID]; ok && now.Sub(at) < l.retention {
		return true, nil
	}

	for id, at := range l.seen {
		if now.Sub(at) >= l.retention {
			delete(l.seen, id)
		}
	}

	l.seen[eventID] = now
	return false, nil
}
