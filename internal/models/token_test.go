package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshToken_IsValid(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Minute)

	assert.True(t, (&RefreshToken{ExpiresAt: now.Add(time.Second)}).IsValid(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now}).IsValid(now), "expiry instant is exclusive")
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &earlier}).IsValid(now))
}

func TestTokenRows_BeforeCreate(t *testing.T) {
	fixed := uuid.New()

	session := RefreshToken{ID: fixed}
	require.NoError(t, session.BeforeCreate(nil))
	assert.Equal(t, fixed, session.ID)

	revoked := BlacklistedToken{JTI: "abc"}
	require.NoError(t, revoked.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, revoked.ID)
	assert.False(t, revoked.BlacklistedAt.IsZero())
}

func TestCustomClaims_Owner(t *testing.T) {
	id := uuid.New()

	owner, err := (&CustomClaims{UserID: id.String()}).Owner()
	require.NoError(t, err)
	assert.Equal(t, id, owner)

	_, err = (&CustomClaims{UserID: "42"}).Owner()
	assert.Error(t, err)
}
