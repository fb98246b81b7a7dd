package authflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-authflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionIndicatorSignOutIsDeduplicated(t *testing.T) {
	client := &MockIdentityClient{}
	started := make(chan struct{})
	release := make(chan struct{})
	client.On("SignOut", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil)

	store := authflow.NewSessionStore(client, authflow.NewRoleResolver(nil))
	require.NoError(t, store.Start())

	indicator := authflow.NewSessionIndicator(store, client, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		indicator.SignOut(context.Background())
	}()

	<-started

	go func() {
		defer wg.Done()
		// second call lands while the first is still in flight and must
		// collapse into it
		indicator.SignOut(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	client.AssertNumberOfCalls(t, "SignOut", 1)
}

func TestSessionIndicatorSignOutSwallowsFailures(t *testing.T) {
	client := &MockIdentityClient{}
	client.On("SignOut", mock.Anything).
		Return(providerErr("signOut", "auth/network-request-failed")).Once()

	store := authflow.NewSessionStore(client, authflow.NewRoleResolver(nil))
	require.NoError(t, store.Start())

	client.Emit(&authflow.Identity{ID: "u1", Email: "user@example.com"})

	indicator := authflow.NewSessionIndicator(store, client, nil)
	indicator.SignOut(context.Background())

	// the session stays whatever the provider last reported
	assert.True(t, store.IsAuthenticated())

	client.Emit(nil)
	assert.False(t, store.IsAuthenticated())
	client.AssertExpectations(t)
}

func TestSessionIndicatorSignOutRecordsActivity(t *testing.T) {
	client := &MockIdentityClient{}
	client.On("SignOut", mock.Anything).Return(nil).Once()

	store := authflow.NewSessionStore(client, authflow.NewRoleResolver(nil))
	require.NoError(t, store.Start())

	client.Emit(&authflow.Identity{ID: "u1", Email: "user@example.com"})

	var events []authflow.ActivityEvent
	sink := authflow.ActivitySinkFunc(func(_ context.Context, event authflow.ActivityEvent) error {
		events = append(events, event)
		return nil
	})

	indicator := authflow.NewSessionIndicator(store, client, nil,
		authflow.WithIndicatorActivitySink(sink))
	indicator.SignOut(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, authflow.ActivityEventSignOut, events[0].EventType)
	assert.Equal(t, "user@example.com", events[0].Email)
	client.AssertExpectations(t)
}

func TestSessionIndicatorMenuToggle(t *testing.T) {
	client := &MockIdentityClient{}
	store := authflow.NewSessionStore(client, authflow.NewRoleResolver(nil))
	require.NoError(t, store.Start())

	indicator := authflow.NewSessionIndicator(store, client, nil)

	assert.False(t, indicator.MenuOpen())
	assert.True(t, indicator.ToggleMenu())
	assert.True(t, indicator.MenuOpen())

	indicator.CloseMenu()
	assert.False(t, indicator.MenuOpen())
}

func TestSessionIndicatorOpenFlowClosesMenu(t *testing.T) {
	client := &MockIdentityClient{}
	store := authflow.NewSessionStore(client, authflow.NewRoleResolver(nil))
	require.NoError(t, store.Start())

	flow := authflow.NewCredentialFlow(client)
	indicator := authflow.NewSessionIndicator(store, client, flow)

	indicator.ToggleMenu()
	indicator.OpenFlow(authflow.FlowModeSignUp)

	assert.False(t, indicator.MenuOpen())

	state := flow.State()
	assert.True(t, state.Open)
	assert.Equal(t, authflow.FlowModeSignUp, state.Mode)
}

func TestSessionIndicatorProfileProjectsStore(t *testing.T) {
	client := &MockIdentityClient{}
	store := authflow.NewSessionStore(client, authflow.NewRoleResolver([]string{"admin@example.com"}))
	require.NoError(t, store.Start())

	indicator := authflow.NewSessionIndicator(store, client, nil)
	assert.Equal(t, authflow.RoleGuest, indicator.Profile().Role)
	assert.False(t, indicator.IsAuthenticated())

	client.Emit(&authflow.Identity{ID: "u1", Email: "admin@example.com", DisplayName: "Ada"})
	profile := indicator.Profile()
	assert.True(t, indicator.IsAuthenticated())
	assert.Equal(t, authflow.RoleAdmin, profile.Role)
	assert.Equal(t, "Ada", profile.DisplayName)
}
