package authflow_test

import (
	"context"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/mock"
)

// MockIdentityClient implements authflow.IdentityClient. Session
// subscription is hand-rolled so tests can emit provider events; the
// credential calls go through testify so tests can assert call counts.
type MockIdentityClient struct {
	mock.Mock

	handler      authflow.SessionHandler
	subscribeErr error
	unsubscribed int
}

func (m *MockIdentityClient) OnSessionChange(handler authflow.SessionHandler) (authflow.UnsubscribeFunc, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	m.handler = handler
	return func() { m.unsubscribed++ }, nil
}

// Emit simulates a provider session event.
func (m *MockIdentityClient) Emit(identity *authflow.Identity) {
	if m.handler != nil {
		m.handler(identity)
	}
}

func (m *MockIdentityClient) SignInWithPopup(ctx context.Context, kind authflow.ProviderKind) (*authflow.Identity, error) {
	args := m.Called(ctx, kind)
	identity, _ := args.Get(0).(*authflow.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*authflow.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*authflow.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityClient) RegisterWithPassword(ctx context.Context, email, password string) (*authflow.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*authflow.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityClient) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockIdentityClient) UpdateDisplayName(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockIdentityClient) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func providerErr(operation, code string) *authflow.ProviderError {
	return &authflow.ProviderError{
		Operation: operation,
		Code:      code,
	}
}
