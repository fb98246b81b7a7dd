// Package authflow provides the client-side authentication state machine for
// applications that delegate credential verification to an external identity
// provider: a reactive session store, a multi-mode credential flow
// (sign-in, sign-up, password reset), access gating, and a session indicator.
//
// Session state:
//   - SessionStore owns the single long-lived provider subscription and is the
//     only writer of session state. Every provider event replaces the identity
//     wholesale and re-derives the role; consumers receive read projections
//     (IsAuthenticated, UserProfile) and change notifications, never mutation
//     access.
//
// Credential flow:
//   - CredentialFlow drives the modal state machine. Input is validated
//     locally before any provider call, submissions are serialized by the
//     submitting guard, and each submission carries a generation token so a
//     result resolving against an already-closed flow is discarded.
//
// Error taxonomy:
//   - Provider failures arrive as opaque {code} signals and are translated at
//     the flow/gate boundary into a closed set of structured errors via
//     MapProviderError. User-initiated cancellations (closing the popup)
//     resolve silently rather than as failures. Raw provider errors never
//     reach presentation code.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing session changes,
//     credential submissions, and sign-outs. Sinks run best-effort (errors are
//     logged) so you can forward to telemetry without blocking the flow.
package authflow
