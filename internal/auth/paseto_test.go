package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestPasetoService(t *testing.T) *PasetoService {
	t.Helper()
	svc, err := NewPasetoService(bytes.Repeat([]byte("k"), 32))
	require.NoError(t, err)
	return svc
}

func TestPasetoServiceRejectsBadKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too-short"))
	require.Error(t, err)
}

func TestPasetoTokenRoundTrip(t *testing.T) {
	svc := newTestPasetoService(t)

	userID := uuid.New()
	token, err := svc.CreateToken(userID, "gloria@gloria.ph", 15*time.Minute)
	require.NoError(t, err)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.UserID)
	require.Equal(t, "gloria@gloria.ph", claims.Email)
	require.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestPasetoVerifyRejectsGarbage(t *testing.T) {
	svc := newTestPasetoService(t)

	_, err := svc.VerifyToken("v4.local.not-a-real-token")
	require.Error(t, err)
}

func TestPasetoVerifyRejectsTokenFromOtherKey(t *testing.T) {
	svc := newTestPasetoService(t)

	other, err := NewPasetoService(bytes.Repeat([]byte("x"), 32))
	require.NoError(t, err)

	token, err := other.CreateToken(uuid.New(), "gloria@gloria.ph", 15*time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.Error(t, err)
}
