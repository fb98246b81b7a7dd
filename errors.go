package authflow

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeDuplicateAccount  = "authflow_duplicate_account"
	TextCodeInvalidEmail      = "authflow_invalid_email"
	TextCodeMethodDisabled    = "authflow_method_disabled"
	TextCodeWeakCredential    = "authflow_weak_credential"
	TextCodeAccountDisabled   = "authflow_account_disabled"
	TextCodeInvalidCredential = "authflow_invalid_credential"
	TextCodeRateLimited       = "authflow_rate_limited"
	TextCodeNetworkFailure    = "authflow_network_failure"
	TextCodePopupBlocked      = "authflow_popup_blocked"
	TextCodeNotConfigured     = "authflow_not_configured"
	TextCodeGenericFailure    = "authflow_generic_failure"
	TextCodeInvalidInput      = "authflow_invalid_input"
)

// ErrDuplicateAccount is returned when the email is already registered.
var ErrDuplicateAccount = goerrors.New("an account already exists with this email", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(goerrors.CodeConflict)

// ErrInvalidEmail is returned when the provider rejects the email address.
var ErrInvalidEmail = goerrors.New("the email address is not valid", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrMethodDisabled is returned when password accounts are not enabled for
// the project.
var ErrMethodDisabled = goerrors.New("email and password accounts are not enabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeMethodDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrWeakCredential is returned when the provider rejects a weak password.
var ErrWeakCredential = goerrors.New("the password is too weak", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakCredential).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountDisabled is returned when the account has been disabled.
var ErrAccountDisabled = goerrors.New("this account has been disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidCredentials covers unknown accounts and wrong passwords; the
// provider's distinction is deliberately collapsed so the message does not
// leak which half was wrong.
var ErrInvalidCredentials = goerrors.New("incorrect email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrRateLimited is returned when the provider throttles the caller.
var ErrRateLimited = goerrors.New("too many attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeRateLimited)

// ErrNetworkFailure is returned for transient connectivity failures; unlike
// ErrNotConfigured the user should retry.
var ErrNetworkFailure = goerrors.New("network error, check your connection and try again", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetworkFailure)

// ErrPopupBlocked is returned when the browser blocked the sign-in popup.
var ErrPopupBlocked = goerrors.New("the sign-in popup was blocked by the browser", goerrors.CategoryOperation).
	WithTextCode(TextCodePopupBlocked)

// ErrNotConfigured is returned when the provider setup is missing; retrying
// will not help, which is why this is kept distinct from ErrNetworkFailure.
var ErrNotConfigured = goerrors.New("authentication is not configured for this application", goerrors.CategoryInternal).
	WithTextCode(TextCodeNotConfigured).
	WithCode(goerrors.CodeInternal)

// ErrAuthenticationFailed is the fallback for provider codes outside the
// fixed table.
var ErrAuthenticationFailed = goerrors.New("authentication failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeGenericFailure).
	WithCode(goerrors.CodeUnauthorized)

// ProviderError captures the provider's opaque failure signal. Concrete
// IdentityClient implementations return this type so the core can translate
// the code without understanding it.
type ProviderError struct {
	Code      string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	scope := "provider"
	if e.Operation != "" {
		scope = e.Operation
	}

	if e.Code != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderCode extracts the provider code from an error chain, or "" when
// the error did not originate as a provider signal.
func ProviderCode(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) && perr != nil {
		return perr.Code
	}
	return ""
}

// Default provider vocabulary. The strings are opaque to the core: the table
// is the only place that knows them.
var providerCodeTable = map[string]*goerrors.Error{
	"auth/email-already-in-use":    ErrDuplicateAccount,
	"auth/invalid-email":           ErrInvalidEmail,
	"auth/operation-not-allowed":   ErrMethodDisabled,
	"auth/weak-password":           ErrWeakCredential,
	"auth/user-disabled":           ErrAccountDisabled,
	"auth/user-not-found":          ErrInvalidCredentials,
	"auth/wrong-password":          ErrInvalidCredentials,
	"auth/invalid-credential":      ErrInvalidCredentials,
	"auth/too-many-requests":       ErrRateLimited,
	"auth/network-request-failed":  ErrNetworkFailure,
	"auth/popup-blocked":           ErrPopupBlocked,
	"auth/configuration-not-found": ErrNotConfigured,
	"auth/api-key-not-valid":       ErrNotConfigured,
}

// Codes that represent user-initiated cancellation. They resolve to no error
// at all: closing the popup is not a failure.
var silentProviderCodes = map[string]struct{}{
	"auth/popup-closed-by-user":    {},
	"auth/cancelled-popup-request": {},
}

// IsSilentProviderCode reports whether the code maps to "no visible error".
func IsSilentProviderCode(code string) bool {
	_, ok := silentProviderCodes[code]
	return ok
}

// MapProviderError translates a provider failure into the fixed taxonomy.
// A nil return for a non-nil input means the failure was a user-initiated
// cancellation and must not be surfaced. Raw provider errors never cross
// this boundary.
func MapProviderError(err error) error {
	if err == nil {
		return nil
	}

	code := ProviderCode(err)
	if IsSilentProviderCode(code) {
		return nil
	}

	if mapped, ok := providerCodeTable[code]; ok {
		return taxonomyError(mapped, code)
	}

	if code != "" {
		return taxonomyError(ErrAuthenticationFailed, code)
	}

	return goerrors.Wrap(err, goerrors.CategoryAuth, "authentication failed").
		WithTextCode(TextCodeGenericFailure)
}

// taxonomyError returns a per-call copy of the shared taxonomy entry so
// attaching the provider code never mutates the table. The base stays in the
// chain for errors.Is.
func taxonomyError(base *goerrors.Error, code string) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}

	clone.Source = base
	return clone.WithMetadata(map[string]any{"provider_code": code})
}

// IsNotConfigured checks for the missing-provider-setup error.
func IsNotConfigured(err error) bool {
	return hasTextCode(err, TextCodeNotConfigured)
}

// IsNetworkFailure checks for the transient connectivity error.
func IsNetworkFailure(err error) bool {
	return hasTextCode(err, TextCodeNetworkFailure)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}
