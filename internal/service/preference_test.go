package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/readalikeapp/readalike-server/internal/errors"
	"github.com/readalikeapp/readalike-server/internal/store"
)

func setupTestPreferenceService(t *testing.T) (*PreferenceService, store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewPreferenceService(s, testLogger()), s
}

func TestGetPreference_CreatedOnFirstAccess(t *testing.T) {
	svc, s := setupTestPreferenceService(t)
	ctx := context.Background()
	createTestUser(t, s, "ada")

	pref, err := svc.GetPreference(ctx, "usr-ada")
	require.NoError(t, err)
	assert.True(t, pref.ReceiveRecommendations)
	assert.NotEmpty(t, pref.UnsubscribeToken)
	assert.Nil(t, pref.LastRecommendationSent)

	again, err := svc.GetPreference(ctx, "usr-ada")
	require.NoError(t, err)
	assert.Equal(t, pref.ID, again.ID)
	assert.Equal(t, pref.UnsubscribeToken, again.UnsubscribeToken)
}

func TestUnsubscribeAndResubscribe(t *testing.T) {
	svc, s := setupTestPreferenceService(t)
	ctx := context.Background()
	createTestUser(t, s, "ada")

	pref, err := svc.Unsubscribe(ctx, "usr-ada")
	require.NoError(t, err)
	assert.False(t, pref.ReceiveRecommendations)
	require.NotNil(t, pref.UnsubscribedAt)
	firstUnsubAt := *pref.UnsubscribedAt

	// Unsubscribing again changes nothing.
	pref, err = svc.Unsubscribe(ctx, "usr-ada")
	require.NoError(t, err)
	assert.False(t, pref.ReceiveRecommendations)
	require.NotNil(t, pref.UnsubscribedAt)
	assert.True(t, pref.UnsubscribedAt.Equal(firstUnsubAt))

	pref, err = svc.Resubscribe(ctx, "usr-ada")
	require.NoError(t, err)
	assert.True(t, pref.ReceiveRecommendations)
	assert.Nil(t, pref.UnsubscribedAt)

	pref, err = svc.Resubscribe(ctx, "usr-ada")
	require.NoError(t, err)
	assert.True(t, pref.ReceiveRecommendations)
}

func TestUnsubscribeByToken(t *testing.T) {
	svc, s := setupTestPreferenceService(t)
	ctx := context.Background()
	createTestUser(t, s, "ada")

	pref, err := svc.GetPreference(ctx, "usr-ada")
	require.NoError(t, err)

	require.NoError(t, svc.UnsubscribeByToken(ctx, pref.UnsubscribeToken))

	got, err := svc.GetPreference(ctx, "usr-ada")
	require.NoError(t, err)
	assert.False(t, got.ReceiveRecommendations)

	// A twice-clicked link still succeeds.
	require.NoError(t, svc.UnsubscribeByToken(ctx, pref.UnsubscribeToken))
}

func TestUnsubscribeByToken_Unknown(t *testing.T) {
	svc, _ := setupTestPreferenceService(t)

	err := svc.UnsubscribeByToken(context.Background(), "not-a-token")
	require.Error(t, err)

	var domErr *domainerrors.Error
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, domainerrors.CodeNotFound, domErr.Code)
}
