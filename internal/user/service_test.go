package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
)

type fakeStore struct {
	byEmail    map[string]*User
	lookupErr  error
	setCalls   int
	lastEmail  string
	lastStatus bool
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) List(ctx context.Context) ([]*User, error) {
	users := make([]*User, 0, len(f.byEmail))
	for _, u := range f.byEmail {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.byEmail), nil
}

func (f *fakeStore) SetAdminStatus(ctx context.Context, email string, isAdmin bool) error {
	f.setCalls++
	f.lastEmail = email
	f.lastStatus = isAdmin
	u, ok := f.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func strPtr(s string) *string { return &s }

func newTestService(store *fakeStore) *Service {
	accounts := make(map[string]*authz.Account, len(store.byEmail))
	for email, u := range store.byEmail {
		accounts[email] = &authz.Account{Email: email, IsAdmin: u.IsAdmin}
	}
	authorizer := authz.NewAuthorizer(accountMap(accounts))
	return NewService(store, authorizer)
}

type accountMap map[string]*authz.Account

func (m accountMap) AccountByEmail(ctx context.Context, email string) (*authz.Account, error) {
	account, ok := m[email]
	if !ok {
		return nil, authz.ErrUserNotFound
	}
	return account, nil
}

func TestIsAdminNeverFails(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{byEmail: map[string]*User{
		"admin@gloria.ph": {ID: uuid.New(), Email: strPtr("admin@gloria.ph"), IsAdmin: true},
	}}
	svc := newTestService(store)

	// Unauthenticated caller
	require.False(t, svc.IsAdmin(ctx, authz.Identity{}))

	// Authenticated caller with no user row
	require.False(t, svc.IsAdmin(ctx, authz.Identity{UserID: uuid.New(), Email: "ghost@gloria.ph"}))

	// Lookup failure reads as not-admin rather than an error
	store.lookupErr = errors.New("connection refused")
	require.False(t, svc.IsAdmin(ctx, authz.Identity{UserID: uuid.New(), Email: "admin@gloria.ph"}))

	store.lookupErr = nil
	require.True(t, svc.IsAdmin(ctx, authz.Identity{UserID: uuid.New(), Email: "admin@gloria.ph"}))
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{byEmail: map[string]*User{
		"reader@gloria.ph": {ID: uuid.New(), Email: strPtr("reader@gloria.ph")},
	}}
	svc := newTestService(store)

	u, err := svc.CurrentUser(ctx, authz.Identity{})
	require.NoError(t, err)
	require.Nil(t, u)

	u, err = svc.CurrentUser(ctx, authz.Identity{UserID: uuid.New(), Email: "ghost@gloria.ph"})
	require.NoError(t, err)
	require.Nil(t, u)

	u, err = svc.CurrentUser(ctx, authz.Identity{UserID: uuid.New(), Email: "reader@gloria.ph"})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "reader@gloria.ph", *u.Email)
}

func TestSetAdminStatusRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{byEmail: map[string]*User{
		"admin@gloria.ph":  {ID: uuid.New(), Email: strPtr("admin@gloria.ph"), IsAdmin: true},
		"reader@gloria.ph": {ID: uuid.New(), Email: strPtr("reader@gloria.ph")},
	}}
	svc := newTestService(store)

	reader := authz.Identity{UserID: uuid.New(), Email: "reader@gloria.ph"}
	err := svc.SetAdminStatus(ctx, reader, "reader@gloria.ph", true)
	require.ErrorIs(t, err, authz.ErrAdminRequired)
	require.Zero(t, store.setCalls, "no write must occur for a non-admin caller")

	admin := authz.Identity{UserID: uuid.New(), Email: "admin@gloria.ph"}
	err = svc.SetAdminStatus(ctx, admin, "reader@gloria.ph", true)
	require.NoError(t, err)
	require.Equal(t, 1, store.setCalls)
	require.True(t, store.byEmail["reader@gloria.ph"].IsAdmin)
}

func TestSetAdminStatusUnknownTarget(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{byEmail: map[string]*User{
		"admin@gloria.ph": {ID: uuid.New(), Email: strPtr("admin@gloria.ph"), IsAdmin: true},
	}}
	svc := newTestService(store)

	admin := authz.Identity{UserID: uuid.New(), Email: "admin@gloria.ph"}
	err := svc.SetAdminStatus(ctx, admin, "missing@x.com", true)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{byEmail: map[string]*User{
		"admin@gloria.ph":  {ID: uuid.New(), Email: strPtr("admin@gloria.ph"), IsAdmin: true},
		"reader@gloria.ph": {ID: uuid.New(), Email: strPtr("reader@gloria.ph")},
	}}
	svc := newTestService(store)

	_, err := svc.List(ctx, authz.Identity{UserID: uuid.New(), Email: "reader@gloria.ph"})
	require.ErrorIs(t, err, authz.ErrAdminRequired)

	users, err := svc.List(ctx, authz.Identity{UserID: uuid.New(), Email: "admin@gloria.ph"})
	require.NoError(t, err)
	require.Len(t, users, 2)
}
