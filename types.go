package authflow

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProviderKind identifies a popup identity provider.
type ProviderKind string

const (
	// ProviderGoogle is the Google popup provider.
	ProviderGoogle ProviderKind = "google"
	// ProviderGithub is the GitHub popup provider.
	ProviderGithub ProviderKind = "github"
)

// UnmarshalText implements encoding.TextUnmarshaler for ProviderKind.
func (p *ProviderKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "google", "github":
		*p = ProviderKind(v)
		return nil
	default:
		return fmt.Errorf("invalid ProviderKind: %q (valid options: google, github)", v)
	}
}

// Identity is the provider's record of an authenticated user. A nil identity
// means unauthenticated.
type Identity struct {
	ID          string         `json:"id,omitempty"`
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	PhotoURL    string         `json:"photo_url,omitempty"`
	Claims      map[string]any `json:"claims,omitempty"`
}

// Session is the application's local view of the current authentication
// outcome. It is replaced wholesale on every provider event and never
// partially mutated.
type Session struct {
	Identity *Identity
	Role     UserRole
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// Email returns the signed-in identity's email, or "" when unauthenticated.
func (s Session) Email() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Email
}

// Profile is the read projection handed to presentation collaborators.
type Profile struct {
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	Role        UserRole `json:"role,omitempty"`
}

// UnsubscribeFunc releases a subscription. Calling it more than once is a
// no-op.
type UnsubscribeFunc func()

// SessionHandler receives the identity carried by a provider session event,
// or nil when the provider reports signed-out.
type SessionHandler func(identity *Identity)

// IdentityClient is the capability surface consumed from the external
// identity provider. Implementations live outside this module; the core only
// depends on this contract. Fallible calls fail with a *ProviderError whose
// Code is drawn from a provider-defined vocabulary treated here as opaque.
type IdentityClient interface {
	OnSessionChange(handler SessionHandler) (UnsubscribeFunc, error)
	SignInWithPopup(ctx context.Context, kind ProviderKind) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	RegisterWithPassword(ctx context.Context, email, password string) (*Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateDisplayName(ctx context.Context, id, name string) error
	SignOut(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHFLOW "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHFLOW "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
