package entitlement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleapp/ladle-billing/pkg/entitlement"
	"github.com/ladleapp/ladle-billing/storage/memory"
)

func newAdapter(t *testing.T, users ...entitlement.User) (*entitlement.StoreAdapter, *memory.Store) {
	t.Helper()

	store := memory.New()
	for _, u := range users {
		require.NoError(t, store.AddUser(u))
	}

	adapter, err := entitlement.NewStoreAdapter(store)
	require.NoError(t, err)
	return adapter, store
}

func TestNewStoreAdapter_RequiresStore(t *testing.T) {
	_, err := entitlement.NewStoreAdapter(nil)
	assert.Error(t, err)
}

func TestApplyDecision_SetPro(t *testing.T) {
	adapter, store := newAdapter(t, entitlement.User{ID: "u1", Email: "a@b.com", IsPro: false})

	outcome, err := adapter.ApplyDecision(context.Background(), "a@b.com", entitlement.Decision{
		Action: entitlement.ActionSetPro,
		Reason: "renewal",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, "u1", outcome.UserID)

	user, err := store.FindUserByIdentity(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, user.IsPro)
}

func TestApplyDecision_Idempotent(t *testing.T) {
	adapter, _ := newAdapter(t, entitlement.User{ID: "u1", Email: "a@b.com", IsPro: false})
	decision := entitlement.Decision{Action: entitlement.ActionSetPro, Reason: "renewal"}

	first, err := adapter.ApplyDecision(context.Background(), "a@b.com", decision)
	require.NoError(t, err)
	assert.True(t, first.Applied, "first apply should write")

	second, err := adapter.ApplyDecision(context.Background(), "a@b.com", decision)
	require.NoError(t, err)
	assert.False(t, second.Applied, "redelivery should be a no-op")
	assert.Equal(t, first.UserID, second.UserID)
}

func TestApplyDecision_IdentityIsCaseInsensitive(t *testing.T) {
	adapter, store := newAdapter(t, entitlement.User{ID: "u1", Email: "Cook@Example.com", IsPro: false})

	outcome, err := adapter.ApplyDecision(context.Background(), "  COOK@EXAMPLE.COM  ", entitlement.Decision{
		Action: entitlement.ActionSetPro,
	})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	user, err := store.FindUserByIdentity(context.Background(), "cook@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsPro)
}

func TestApplyDecision_UnknownSubject(t *testing.T) {
	adapter, _ := newAdapter(t)

	_, err := adapter.ApplyDecision(context.Background(), "ghost@example.com", entitlement.Decision{
		Action: entitlement.ActionSetPro,
	})
	assert.ErrorIs(t, err, entitlement.ErrUserNotFound)
}

func TestApplyDecision_EmptyIdentity(t *testing.T) {
	adapter, _ := newAdapter(t)

	_, err := adapter.ApplyDecision(context.Background(), "   ", entitlement.Decision{
		Action: entitlement.ActionSetPro,
	})
	assert.ErrorIs(t, err, entitlement.ErrInvalidIdentity)
}

func TestApplyDecision_NoChangeNeverWrites(t *testing.T) {
	adapter, store := newAdapter(t, entitlement.User{ID: "u1", Email: "a@b.com", IsPro: true})

	outcome, err := adapter.ApplyDecision(context.Background(), "a@b.com", entitlement.Decision{
		Action: entitlement.ActionNoChange,
		Reason: "billing issue",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, "u1", outcome.UserID)

	user, err := store.FindUserByIdentity(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, user.IsPro, "NoChange must leave the stored value alone")
}

func TestApplyDecision_SetFree(t *testing.T) {
	adapter, store := newAdapter(t, entitlement.User{ID: "u1", Email: "a@b.com", IsPro: true})

	outcome, err := adapter.ApplyDecision(context.Background(), "a@b.com", entitlement.Decision{
		Action: entitlement.ActionSetFree,
		Reason: "expiration",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	user, err := store.FindUserByIdentity(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, user.IsPro)
}

type brokenStore struct{}

func (brokenStore) FindUserByIdentity(context.Context, string) (*entitlement.User, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) SetIsPro(context.Context, string, bool) error {
	return errors.New("connection reset")
}

func TestApplyDecision_StoreFailurePropagates(t *testing.T) {
	adapter, err := entitlement.NewStoreAdapter(brokenStore{})
	require.NoError(t, err)

	_, err = adapter.ApplyDecision(context.Background(), "a@b.com", entitlement.Decision{
		Action: entitlement.ActionSetPro,
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, entitlement.ErrUserNotFound)
}
