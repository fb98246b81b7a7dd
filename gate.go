package authflow

import (
	"context"
	"sync"
	"time"
)

// AccessDecision is the result of gating a protected subtree.
type AccessDecision string

const (
	// DecisionUnauthenticated means no identity: render a fallback or the
	// standard sign-in prompt.
	DecisionUnauthenticated AccessDecision = "unauthenticated"
	// DecisionForbidden means an identity is present but lacks the required
	// role: render the access-denied view.
	DecisionForbidden AccessDecision = "forbidden"
	// DecisionAllowed means the protected content renders.
	DecisionAllowed AccessDecision = "allowed"
)

// Evaluate computes the access decision for a session against a guard's
// admin requirement. It is a pure function of its inputs.
func Evaluate(session Session, requireAdmin bool) AccessDecision {
	if !session.Authenticated() {
		return DecisionUnauthenticated
	}

	if requireAdmin && session.Role != RoleAdmin {
		return DecisionForbidden
	}

	return DecisionAllowed
}

// defaultGateErrorTTL is how long a prompt error stays visible. Errors shown
// outside the modal auto-expire; modal errors persist until the next action.
const defaultGateErrorTTL = 5 * time.Second

// GateOption customizes gate construction.
type GateOption func(*AccessGate)

// WithGateLogger overrides the logger used by the gate.
func WithGateLogger(logger Logger) GateOption {
	return func(g *AccessGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGateProvider sets the popup provider offered by the sign-in prompt.
func WithGateProvider(kind ProviderKind) GateOption {
	return func(g *AccessGate) {
		if kind != "" {
			g.provider = kind
		}
	}
}

// WithGateErrorTTL overrides how long prompt errors stay visible.
func WithGateErrorTTL(ttl time.Duration) GateOption {
	return func(g *AccessGate) {
		if ttl > 0 {
			g.errTTL = ttl
		}
	}
}

// WithGateClock injects a custom clock (useful for tests).
func WithGateClock(clock func() time.Time) GateOption {
	return func(g *AccessGate) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithGateCompletion sets a callback invoked exactly once after the prompt's
// first successful sign-in.
func WithGateCompletion(fn func(*Identity)) GateOption {
	return func(g *AccessGate) {
		g.onSignIn = fn
	}
}

// AccessGate decides whether protected content renders and hosts the
// simplified single-provider sign-in prompt shown to unauthenticated
// visitors. Its flow state is minimal and independent of CredentialFlow.
type AccessGate struct {
	store        *SessionStore
	client       IdentityClient
	requireAdmin bool
	provider     ProviderKind
	errTTL       time.Duration
	now          func() time.Time
	logger       Logger
	onSignIn     func(*Identity)
	completed    sync.Once

	mu        sync.Mutex
	signingIn bool
	err       error
	errExpiry time.Time
}

// NewAccessGate builds a gate over the store for content requiring
// authentication, or admin when requireAdmin is set.
func NewAccessGate(store *SessionStore, client IdentityClient, requireAdmin bool, opts ...GateOption) *AccessGate {
	if store == nil {
		panic("authflow: missing session store in access gate")
	}
	if client == nil {
		panic("authflow: missing identity client in access gate")
	}

	g := &AccessGate{
		store:        store,
		client:       client,
		requireAdmin: requireAdmin,
		provider:     ProviderGoogle,
		errTTL:       defaultGateErrorTTL,
		now:          time.Now,
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Decide evaluates the gate against the current session.
func (g *AccessGate) Decide() AccessDecision {
	return Evaluate(g.store.Current(), g.requireAdmin)
}

// DeniedEmail is the signed-in email shown read-only on the access-denied
// view.
func (g *AccessGate) DeniedEmail() string {
	return g.store.Current().Email()
}

// Provider is the popup provider offered by the prompt.
func (g *AccessGate) Provider() ProviderKind {
	return g.provider
}

// SigningIn reports whether a prompt sign-in is in flight.
func (g *AccessGate) SigningIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signingIn
}

// Err returns the current prompt error, clearing it once the expiry window
// has passed.
func (g *AccessGate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil && g.now().After(g.errExpiry) {
		g.err = nil
	}

	return g.err
}

// SignIn runs the prompt's single-provider popup flow. Re-entrant calls
// while one is in flight are no-ops. Cancelling the popup resolves silently;
// other failures surface through the taxonomy and auto-expire.
func (g *AccessGate) SignIn(ctx context.Context) error {
	g.mu.Lock()
	if g.signingIn {
		g.mu.Unlock()
		return nil
	}
	g.signingIn = true
	g.err = nil
	g.mu.Unlock()

	identity, err := g.client.SignInWithPopup(ctx, g.provider)

	g.mu.Lock()
	g.signingIn = false
	if err != nil {
		mapped := MapProviderError(err)
		if mapped != nil {
			g.err = mapped
			g.errExpiry = g.now().Add(g.errTTL)
		}
		g.mu.Unlock()
		return mapped
	}
	g.mu.Unlock()

	if g.onSignIn != nil {
		g.completed.Do(func() {
			g.onSignIn(identity)
		})
	}

	return nil
}
