package authflow

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionStoreOption customizes store construction.
type SessionStoreOption func(*SessionStore)

// WithStoreLogger overrides the logger used by the store.
func WithStoreLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreActivitySink sets the ActivitySink used to publish session events.
func WithStoreActivitySink(sink ActivitySink) SessionStoreOption {
	return func(s *SessionStore) {
		s.activitySink = normalizeActivitySink(sink)
	}
}

// SessionStore is the single authoritative view of "who is logged in". It is
// updated only by provider session events: each event replaces the identity
// wholesale and re-derives the role. All other components hold read-only
// projections.
type SessionStore struct {
	client       IdentityClient
	resolver     *RoleResolver
	logger       Logger
	activitySink ActivitySink

	mu          sync.RWMutex
	current     Session
	subscribers map[uuid.UUID]func(Session)

	startOnce   sync.Once
	closeOnce   sync.Once
	unsubscribe UnsubscribeFunc
}

// NewSessionStore builds a store bound to the given provider client and role
// resolver.
func NewSessionStore(client IdentityClient, resolver *RoleResolver, opts ...SessionStoreOption) *SessionStore {
	if client == nil {
		panic("authflow: missing identity client in session store")
	}

	if resolver == nil {
		resolver = NewRoleResolver(nil)
	}

	s := &SessionStore{
		client:       client,
		resolver:     resolver,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		subscribers:  map[uuid.UUID]func(Session){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Start acquires the provider subscription. It is safe to call more than
// once; only the first call registers. A subscription failure is fail-closed:
// the store keeps reporting no session and the wrapped error is returned so
// callers can log it, but the store remains usable.
func (s *SessionStore) Start() error {
	var err error

	s.startOnce.Do(func() {
		unsubscribe, serr := s.client.OnSessionChange(s.apply)
		if serr != nil {
			s.logger.Warn("session subscription failed, treating as signed out: %v", serr)
			err = goerrors.Wrap(serr, goerrors.CategoryOperation, "failed to subscribe to session changes")
			return
		}

		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()
	})

	return err
}

// Close releases the provider subscription exactly once. The last observed
// session is left in place; the subscription is the only resource held.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsubscribe := s.unsubscribe
		s.unsubscribe = nil
		s.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

// Subscribe registers a consumer notified after every identity replacement.
// Consumers observe replacements in the same order the provider emits them.
func (s *SessionStore) Subscribe(fn func(Session)) UnsubscribeFunc {
	if fn == nil {
		return func() {}
	}

	key := uuid.New()

	s.mu.Lock()
	s.subscribers[key] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, key)
		s.mu.Unlock()
	}
}

// Current returns a snapshot of the session.
func (s *SessionStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsAuthenticated reports whether an identity is present.
func (s *SessionStore) IsAuthenticated() bool {
	return s.Current().Authenticated()
}

// UserProfile returns the identity projection, or an anonymous guest record
// when no identity is present.
func (s *SessionStore) UserProfile() Profile {
	session := s.Current()
	if session.Identity == nil {
		return Profile{Role: RoleGuest}
	}

	return Profile{
		Email:       session.Identity.Email,
		DisplayName: session.Identity.DisplayName,
		PhotoURL:    session.Identity.PhotoURL,
		Role:        session.Role,
	}
}

// apply is the provider event handler: the one writer of session state.
func (s *SessionStore) apply(identity *Identity) {
	next := Session{
		Identity: identity,
		Role:     s.resolver.Resolve(identity),
	}

	s.mu.Lock()
	s.current = next
	listeners := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}

	s.recordSessionEvent(next)
}

func (s *SessionStore) recordSessionEvent(session Session) {
	event := ActivityEvent{
		EventType:  ActivityEventSessionCleared,
		OccurredAt: time.Now(),
	}

	if session.Identity != nil {
		event.EventType = ActivityEventSessionChanged
		event.UserID = session.Identity.ID
		event.Email = session.Identity.Email
		event.Metadata = map[string]any{"role": session.Role}
	}

	sink := normalizeActivitySink(s.activitySink)
	if err := sink.Record(context.Background(), event); err != nil {
		s.logger.Warn("session store activity sink error: %v", err)
	}
}
