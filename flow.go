package authflow

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// FlowMode identifies which credential form is active. Modes are peer
// states: each is reachable from the others via explicit navigation.
type FlowMode string

const (
	FlowModeSignIn FlowMode = "sign-in"
	FlowModeSignUp FlowMode = "sign-up"
	FlowModeReset  FlowMode = "reset"
)

// FlowStatus is the submission lifecycle of the active form.
type FlowStatus string

const (
	FlowStatusIdle       FlowStatus = "idle"
	FlowStatusSubmitting FlowStatus = "submitting"
	FlowStatusSucceeded  FlowStatus = "succeeded"
	FlowStatusFailed     FlowStatus = "failed"
)

// FlowState is the transient, never persisted state of the credential modal.
// Fields carry a credential and are cleared whenever the flow closes.
type FlowState struct {
	Open        bool
	Mode        FlowMode
	Email       string
	Password    string
	DisplayName string
	Status      FlowStatus
	Err         error
}

// FlowOption customizes controller construction.
type FlowOption func(*CredentialFlow)

// WithFlowLogger overrides the logger used by the controller.
func WithFlowLogger(logger Logger) FlowOption {
	return func(f *CredentialFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFlowActivitySink sets the ActivitySink used to publish flow events.
func WithFlowActivitySink(sink ActivitySink) FlowOption {
	return func(f *CredentialFlow) {
		f.activitySink = normalizeActivitySink(sink)
	}
}

// CredentialFlow drives the multi-mode credential entry state machine and is
// the only component that dispatches credential calls to the provider.
//
// Submissions are serialized by the submitting guard: a second Submit while
// one is pending is a no-op, not queued. Every submission carries a
// generation token; a result that resolves after the flow was closed or
// resubmitted finds a stale generation and is discarded.
type CredentialFlow struct {
	client       IdentityClient
	logger       Logger
	activitySink ActivitySink

	mu         sync.Mutex
	state      FlowState
	generation uuid.UUID
	listeners  map[uuid.UUID]func(FlowState)
}

// NewCredentialFlow builds a controller bound to the provider client.
func NewCredentialFlow(client IdentityClient, opts ...FlowOption) *CredentialFlow {
	if client == nil {
		panic("authflow: missing identity client in credential flow")
	}

	f := &CredentialFlow{
		client:       client,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		listeners:    map[uuid.UUID]func(FlowState){},
		state: FlowState{
			Mode:   FlowModeSignIn,
			Status: FlowStatusIdle,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// State returns a snapshot of the flow state.
func (f *CredentialFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OnChange registers a listener notified after every state change.
func (f *CredentialFlow) OnChange(fn func(FlowState)) UnsubscribeFunc {
	if fn == nil {
		return func() {}
	}

	key := uuid.New()

	f.mu.Lock()
	f.listeners[key] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, key)
		f.mu.Unlock()
	}
}

// Open opens the modal in the given mode. Fields start empty: they are never
// cached across opens.
func (f *CredentialFlow) Open(mode FlowMode) {
	f.mu.Lock()
	f.state = FlowState{
		Open:   true,
		Mode:   normalizeMode(mode),
		Status: FlowStatusIdle,
	}
	f.generation = uuid.New()
	f.mu.Unlock()

	f.notify()
}

// SwitchMode navigates between the peer modes. The error resets; typed field
// contents survive until the flow closes.
func (f *CredentialFlow) SwitchMode(mode FlowMode) {
	f.mu.Lock()
	if !f.state.Open || f.state.Status == FlowStatusSubmitting {
		f.mu.Unlock()
		return
	}

	f.state.Mode = normalizeMode(mode)
	f.state.Status = FlowStatusIdle
	f.state.Err = nil
	f.mu.Unlock()

	f.notify()
}

// Close closes the modal and clears every transient field. An in-flight
// provider call is not cancelled; its late result is discarded against the
// bumped generation.
func (f *CredentialFlow) Close() {
	f.mu.Lock()
	mode := f.state.Mode
	f.state = FlowState{
		Mode:   mode,
		Status: FlowStatusIdle,
	}
	f.generation = uuid.New()
	f.mu.Unlock()

	f.notify()
}

// SetEmail updates the email field.
func (f *CredentialFlow) SetEmail(value string) {
	f.setField(func(s *FlowState) { s.Email = value })
}

// SetPassword updates the password field. The value lives only in memory and
// only until the flow closes.
func (f *CredentialFlow) SetPassword(value string) {
	f.setField(func(s *FlowState) { s.Password = value })
}

// SetDisplayName updates the display name field.
func (f *CredentialFlow) SetDisplayName(value string) {
	f.setField(func(s *FlowState) { s.DisplayName = value })
}

func (f *CredentialFlow) setField(apply func(*FlowState)) {
	f.mu.Lock()
	if !f.state.Open || f.state.Status == FlowStatusSubmitting {
		f.mu.Unlock()
		return
	}
	apply(&f.state)
	f.mu.Unlock()

	f.notify()
}

// Submit validates the active form and dispatches exactly one provider call
// matching the mode. Re-entrant calls while a submission is pending are
// no-ops.
func (f *CredentialFlow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if !f.state.Open || f.state.Status == FlowStatusSubmitting {
		f.mu.Unlock()
		return nil
	}

	mode := f.state.Mode
	email := normalizeEmail(f.state.Email)
	password := f.state.Password
	displayName := strings.TrimSpace(f.state.DisplayName)

	if err := validateForMode(mode, email, password, displayName); err != nil {
		invalid := goerrors.Wrap(err, goerrors.CategoryValidation, "invalid form input").
			WithTextCode(TextCodeInvalidInput)
		f.state.Status = FlowStatusFailed
		f.state.Err = invalid
		f.mu.Unlock()

		f.notify()
		return invalid
	}

	generation := uuid.New()
	f.generation = generation
	f.state.Status = FlowStatusSubmitting
	f.state.Err = nil
	f.mu.Unlock()

	f.notify()

	var err error
	switch mode {
	case FlowModeSignUp:
		err = f.submitSignUp(ctx, email, password, displayName)
	case FlowModeReset:
		err = f.client.SendPasswordReset(ctx, email)
	default:
		_, err = f.client.SignInWithPassword(ctx, email, password)
	}

	return f.resolve(ctx, generation, mode, email, err)
}

// SubmitPopup is the parallel popup entry point, usable from sign-in and
// sign-up modes. No local validation applies; the same error mapping and
// close-on-success behavior do.
func (f *CredentialFlow) SubmitPopup(ctx context.Context, kind ProviderKind) error {
	f.mu.Lock()
	if !f.state.Open || f.state.Status == FlowStatusSubmitting || f.state.Mode == FlowModeReset {
		f.mu.Unlock()
		return nil
	}

	mode := f.state.Mode
	generation := uuid.New()
	f.generation = generation
	f.state.Status = FlowStatusSubmitting
	f.state.Err = nil
	f.mu.Unlock()

	f.notify()

	identity, err := f.client.SignInWithPopup(ctx, kind)

	email := ""
	if identity != nil {
		email = identity.Email
	}

	return f.resolve(ctx, generation, mode, email, err)
}

// submitSignUp registers the account and then sets the display name. When
// the second call fails after the first succeeded the account exists but the
// name update did not happen: the failure is surfaced and the account is not
// rolled back. The next provider session event still authenticates it.
func (f *CredentialFlow) submitSignUp(ctx context.Context, email, password, displayName string) error {
	identity, err := f.client.RegisterWithPassword(ctx, email, password)
	if err != nil {
		return err
	}

	id := ""
	if identity != nil {
		id = identity.ID
	}

	return f.client.UpdateDisplayName(ctx, id, displayName)
}

// resolve applies a submission outcome, unless the flow moved on.
func (f *CredentialFlow) resolve(ctx context.Context, generation uuid.UUID, mode FlowMode, email string, err error) error {
	f.mu.Lock()
	if f.generation != generation {
		// the flow was closed or resubmitted while this call was in flight
		f.mu.Unlock()
		return nil
	}

	if err != nil {
		mapped := MapProviderError(err)
		if mapped == nil {
			// user-initiated cancellation, silently resolved
			f.state.Status = FlowStatusIdle
			f.state.Err = nil
			f.mu.Unlock()

			f.notify()
			return nil
		}

		f.state.Status = FlowStatusFailed
		f.state.Err = mapped
		f.mu.Unlock()

		f.notify()
		f.recordFlowEvent(ctx, mode, email, mapped)
		return mapped
	}

	if mode == FlowModeReset {
		// keep the modal open showing the confirmation
		f.state.Status = FlowStatusSucceeded
		f.state.Err = nil
		f.mu.Unlock()

		f.notify()
		f.recordFlowEvent(ctx, mode, email, nil)
		return nil
	}

	f.state = FlowState{
		Mode:   mode,
		Status: FlowStatusIdle,
	}
	f.generation = uuid.New()
	f.mu.Unlock()

	f.notify()
	f.recordFlowEvent(ctx, mode, email, nil)
	return nil
}

func (f *CredentialFlow) notify() {
	f.mu.Lock()
	state := f.state
	listeners := make([]func(FlowState), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (f *CredentialFlow) recordFlowEvent(ctx context.Context, mode FlowMode, email string, failure error) {
	event := ActivityEvent{
		Email:      email,
		OccurredAt: time.Now(),
	}

	switch {
	case mode == FlowModeReset:
		event.EventType = ActivityEventResetRequested
	case mode == FlowModeSignUp && failure == nil:
		event.EventType = ActivityEventSignUpSuccess
	case mode == FlowModeSignUp:
		event.EventType = ActivityEventSignUpFailure
	case failure == nil:
		event.EventType = ActivityEventSignInSuccess
	default:
		event.EventType = ActivityEventSignInFailure
	}

	if failure != nil {
		event.Metadata = map[string]any{"error": failure.Error()}
	}

	sink := normalizeActivitySink(f.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		f.logger.Warn("credential flow activity sink error: %v", err)
	}
}

func validateForMode(mode FlowMode, email, password, displayName string) error {
	switch mode {
	case FlowModeSignUp:
		return SignUpRequest{Email: email, Password: password, DisplayName: displayName}.Validate()
	case FlowModeReset:
		return ResetRequest{Email: email}.Validate()
	default:
		return SignInRequest{Email: email, Password: password}.Validate()
	}
}

func normalizeMode(mode FlowMode) FlowMode {
	switch mode {
	case FlowModeSignIn, FlowModeSignUp, FlowModeReset:
		return mode
	default:
		return FlowModeSignIn
	}
}
