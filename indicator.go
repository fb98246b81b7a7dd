package authflow

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SessionIndicator presents the current identity and exposes the sign-out
// and open-flow affordances. It carries no business logic beyond the menu
// toggle.
type SessionIndicator struct {
	store        *SessionStore
	client       IdentityClient
	flow         *CredentialFlow
	logger       Logger
	activitySink ActivitySink

	group singleflight.Group

	mu       sync.Mutex
	menuOpen bool
}

// IndicatorOption customizes indicator construction.
type IndicatorOption func(*SessionIndicator)

// WithIndicatorLogger overrides the logger used by the indicator.
func WithIndicatorLogger(logger Logger) IndicatorOption {
	return func(si *SessionIndicator) {
		if logger != nil {
			si.logger = logger
		}
	}
}

// WithIndicatorActivitySink sets the ActivitySink used to publish sign-out
// events.
func WithIndicatorActivitySink(sink ActivitySink) IndicatorOption {
	return func(si *SessionIndicator) {
		si.activitySink = normalizeActivitySink(sink)
	}
}

// NewSessionIndicator builds an indicator over the store. The flow is only
// used to open the credential modal.
func NewSessionIndicator(store *SessionStore, client IdentityClient, flow *CredentialFlow, opts ...IndicatorOption) *SessionIndicator {
	if store == nil {
		panic("authflow: missing session store in session indicator")
	}
	if client == nil {
		panic("authflow: missing identity client in session indicator")
	}

	si := &SessionIndicator{
		store:        store,
		client:       client,
		flow:         flow,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(si)
		}
	}

	return si
}

// Profile returns the store's read projection for rendering.
func (si *SessionIndicator) Profile() Profile {
	return si.store.UserProfile()
}

// IsAuthenticated proxies the store projection.
func (si *SessionIndicator) IsAuthenticated() bool {
	return si.store.IsAuthenticated()
}

// ToggleMenu flips the dropdown and returns the new state.
func (si *SessionIndicator) ToggleMenu() bool {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.menuOpen = !si.menuOpen
	return si.menuOpen
}

// MenuOpen reports whether the dropdown is open.
func (si *SessionIndicator) MenuOpen() bool {
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.menuOpen
}

// CloseMenu closes the dropdown. Also used for outside clicks.
func (si *SessionIndicator) CloseMenu() {
	si.mu.Lock()
	si.menuOpen = false
	si.mu.Unlock()
}

// OpenFlow closes the menu and opens the credential modal in the given mode.
func (si *SessionIndicator) OpenFlow(mode FlowMode) {
	si.CloseMenu()
	if si.flow != nil {
		si.flow.Open(mode)
	}
}

// SignOut invokes the provider sign-out. Calls made while one is in flight
// collapse into it, so rapid repeats produce exactly one provider call.
// Failures are swallowed: the next session event is authoritative, not the
// outcome of this call.
func (si *SessionIndicator) SignOut(ctx context.Context) {
	si.CloseMenu()

	si.group.Do("sign-out", func() (any, error) {
		profile := si.store.UserProfile()

		if err := si.client.SignOut(ctx); err != nil {
			si.logger.Warn("sign out failed, deferring to next session event: %v", err)
			return nil, nil
		}

		si.recordSignOut(ctx, profile)
		return nil, nil
	})
}

func (si *SessionIndicator) recordSignOut(ctx context.Context, profile Profile) {
	event := ActivityEvent{
		EventType:  ActivityEventSignOut,
		Email:      profile.Email,
		OccurredAt: time.Now(),
	}

	sink := normalizeActivitySink(si.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		si.logger.Warn("session indicator activity sink error: %v", err)
	}
}
