package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeAccountSource struct {
	accounts map[string]*Account
	err      error
}

func (f *fakeAccountSource) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	account, ok := f.accounts[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return account, nil
}

func newAuthorizer(accounts map[string]*Account) *Authorizer {
	return NewAuthorizer(&fakeAccountSource{accounts: accounts})
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()
	auth := newAuthorizer(map[string]*Account{
		"admin@gloria.ph":  {Email: "admin@gloria.ph", IsAdmin: true},
		"reader@gloria.ph": {Email: "reader@gloria.ph", IsAdmin: false},
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, err := auth.RequireAdmin(ctx, Identity{})
		require.ErrorIs(t, err, ErrAuthRequired)
	})

	t.Run("identity without email", func(t *testing.T) {
		_, err := auth.RequireAdmin(ctx, Identity{UserID: uuid.New()})
		require.ErrorIs(t, err, ErrEmailRequired)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := auth.RequireAdmin(ctx, Identity{UserID: uuid.New(), Email: "ghost@gloria.ph"})
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("non-admin", func(t *testing.T) {
		_, err := auth.RequireAdmin(ctx, Identity{UserID: uuid.New(), Email: "reader@gloria.ph"})
		require.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("admin", func(t *testing.T) {
		account, err := auth.RequireAdmin(ctx, Identity{UserID: uuid.New(), Email: "admin@gloria.ph"})
		require.NoError(t, err)
		require.True(t, account.IsAdmin)
		require.Equal(t, "admin@gloria.ph", account.Email)
	})
}

func TestRequireAuth(t *testing.T) {
	auth := newAuthorizer(nil)

	_, err := auth.RequireAuth(Identity{})
	require.ErrorIs(t, err, ErrAuthRequired)

	ident := Identity{UserID: uuid.New(), Email: "reader@gloria.ph"}
	got, err := auth.RequireAuth(ident)
	require.NoError(t, err)
	require.Equal(t, ident, got)
}

func TestCurrentRole(t *testing.T) {
	ctx := context.Background()
	accounts := map[string]*Account{
		"admin@gloria.ph":  {Email: "admin@gloria.ph", IsAdmin: true},
		"reader@gloria.ph": {Email: "reader@gloria.ph", IsAdmin: false},
	}
	auth := newAuthorizer(accounts)

	require.Equal(t, RoleNone, auth.CurrentRole(ctx, Identity{}))
	require.Equal(t, RoleNone, auth.CurrentRole(ctx, Identity{UserID: uuid.New(), Email: "ghost@gloria.ph"}))
	require.Equal(t, RoleUser, auth.CurrentRole(ctx, Identity{UserID: uuid.New(), Email: "reader@gloria.ph"}))
	require.Equal(t, RoleAdmin, auth.CurrentRole(ctx, Identity{UserID: uuid.New(), Email: "admin@gloria.ph"}))
}

func TestCurrentRoleSwallowsLookupErrors(t *testing.T) {
	auth := NewAuthorizer(&fakeAccountSource{err: errors.New("connection refused")})

	role := auth.CurrentRole(context.Background(), Identity{UserID: uuid.New(), Email: "reader@gloria.ph"})
	require.Equal(t, RoleNone, role)
}

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	auth := newAuthorizer(map[string]*Account{
		"reader@gloria.ph": {Email: "reader@gloria.ph", IsAdmin: false},
	})

	ident := Identity{UserID: uuid.New(), Email: "reader@gloria.ph"}
	require.NoError(t, auth.RequireRole(ctx, ident, RoleUser))
	require.Error(t, auth.RequireRole(ctx, ident, RoleAdmin))
	require.Error(t, auth.RequireRole(ctx, Identity{}, RoleUser))
}
