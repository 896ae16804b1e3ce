package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
	"github.com/gloriaconnect/gloria-connect-api/internal/user"
)

type fakeUserStore struct {
	byEmail map[string]*user.User
	byID    map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*user.User),
		byID:    make(map[uuid.UUID]*user.User),
	}
}

func (f *fakeUserStore) add(email string, passwordHash *string) *user.User {
	u := &user.User{ID: uuid.New(), Email: &email, PasswordHash: passwordHash}
	f.byEmail[email] = u
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserStore) CreateWithPassword(ctx context.Context, email, passwordHash string) (*user.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrDuplicateEmail
	}
	return f.add(email, &passwordHash), nil
}

func (f *fakeUserStore) FindOrCreateByEmail(ctx context.Context, email, name string) (*user.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	u := f.add(email, nil)
	if name != "" {
		u.Name = &name
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (f *fakeTokenRepo) StoreRefreshToken(ctx context.Context, userID, sessionID uuid.UUID, parentID *uuid.UUID, token string, expiresAt time.Time) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt := &RefreshToken{
		ID:                   uuid.New(),
		SessionID:            sessionID,
		ParentRefreshTokenID: parentID,
		UserID:               &userID,
		TokenHash:            hashToken(token),
		ExpiresAt:            &expiresAt,
		CreatedAt:            time.Now(),
	}
	f.tokens[rt.TokenHash] = rt
	return rt.ID, nil
}

func (f *fakeTokenRepo) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[hashToken(token)]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	copied := *rt
	return &copied, nil
}

func (f *fakeTokenRepo) ConsumeRefreshToken(ctx context.Context, tokenID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rt := range f.tokens {
		if rt.ID == tokenID {
			rt.Consumed = true
			return nil
		}
	}
	return ErrRefreshTokenNotFound
}

func (f *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[hashToken(token)]
	if !ok {
		return ErrRefreshTokenNotFound
	}
	now := time.Now()
	rt.RevokedAt = &now
	return nil
}

func (f *fakeTokenRepo) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, rt := range f.tokens {
		if rt.SessionID == sessionID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeTokenRepo) MigrateLegacyTokens(ctx context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	updated, removed := 0, 0
	for hash, rt := range f.tokens {
		if rt.UserID == nil {
			delete(f.tokens, hash)
			removed++
			continue
		}
		if rt.ExpiresAt == nil && rt.ExpirationTime != nil {
			expiry := *rt.ExpirationTime
			rt.ExpiresAt = &expiry
			updated++
		}
	}
	return updated, removed, nil
}

type fakeMagicLinkStore struct {
	codes map[string]string
}

func newFakeMagicLinkStore() *fakeMagicLinkStore {
	return &fakeMagicLinkStore{codes: make(map[string]string)}
}

func (f *fakeMagicLinkStore) StoreCode(ctx context.Context, email, code string, ttl time.Duration) error {
	f.codes[code] = email
	return nil
}

func (f *fakeMagicLinkStore) ConsumeCode(ctx context.Context, code string) (string, error) {
	email, ok := f.codes[code]
	if !ok {
		return "", ErrMagicLinkNotFound
	}
	delete(f.codes, code)
	return email, nil
}

type fakeEmailService struct {
	mu    sync.Mutex
	sent  []string
	links []string
}

func (f *fakeEmailService) SendMagicLinkEmail(ctx context.Context, toEmail, link, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, toEmail)
	f.links = append(f.links, link)
	return nil
}

func (f *fakeEmailService) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeGoogleVerifier struct {
	profiles map[string]*GoogleProfile
}

func (f *fakeGoogleVerifier) Verify(ctx context.Context, raw string) (*GoogleProfile, error) {
	p, ok := f.profiles[raw]
	if !ok {
		return nil, ErrInvalidGoogleToken
	}
	return p, nil
}

type accountMap map[string]*authz.Account

func (m accountMap) AccountByEmail(ctx context.Context, email string) (*authz.Account, error) {
	account, ok := m[email]
	if !ok {
		return nil, authz.ErrUserNotFound
	}
	return account, nil
}

type testEnv struct {
	svc       *Service
	users     *fakeUserStore
	tokens    *fakeTokenRepo
	magic     *fakeMagicLinkStore
	email     *fakeEmailService
	google    *fakeGoogleVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserStore()
	tokens := newFakeTokenRepo()
	magic := newFakeMagicLinkStore()
	email := &fakeEmailService{}
	google := &fakeGoogleVerifier{profiles: make(map[string]*GoogleProfile)}

	authorizer := authz.NewAuthorizer(accountMap{
		"admin@gloria.ph":  {Email: "admin@gloria.ph", IsAdmin: true},
		"reader@gloria.ph": {Email: "reader@gloria.ph", IsAdmin: false},
	})

	svc := NewService(
		users,
		tokens,
		magic,
		newTestPasetoService(t),
		email,
		google,
		authorizer,
		logging.NewLogger(true),
		"https://gloriaconnect.ph",
		15*time.Minute,
		7*24*time.Hour,
		20*time.Minute,
	)

	return &testEnv{svc: svc, users: users, tokens: tokens, magic: magic, email: email, google: google}
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	created, err := env.svc.Register(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)
	require.NotNil(t, created.PasswordHash)

	tokens, err := env.svc.Login(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "Bearer", tokens.TokenType)

	_, err = env.svc.Login(ctx, "gloria@gloria.ph", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "", "s3cret-password")
	require.ErrorIs(t, err, ErrEmailRequired)

	_, err = env.svc.Register(ctx, "not-an-email", "s3cret-password")
	require.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, err = env.svc.Register(ctx, "gloria@gloria.ph", "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = env.svc.Register(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)
	_, err = env.svc.Register(ctx, "gloria@gloria.ph", "s3cret-password")
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLoginRejectsPasswordlessAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Magic-link accounts have no password hash
	env.users.add("linkonly@gloria.ph", nil)

	_, err := env.svc.Login(ctx, "linkonly@gloria.ph", "anything-at-all")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMagicLinkFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.svc.RequestMagicLink(ctx, "new@gloria.ph", "fil"))
	require.Len(t, env.magic.codes, 1)

	var code string
	for c := range env.magic.codes {
		code = c
	}

	tokens, err := env.svc.VerifyMagicLink(ctx, code)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	// The user was created on first sign-in
	created, err := env.users.GetByEmail(ctx, "new@gloria.ph")
	require.NoError(t, err)
	require.Nil(t, created.PasswordHash)

	// Codes are single use
	_, err = env.svc.VerifyMagicLink(ctx, code)
	require.ErrorIs(t, err, ErrMagicLinkNotFound)
}

func TestRequestMagicLinkValidatesInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.ErrorIs(t, env.svc.RequestMagicLink(ctx, "", "en"), ErrEmailRequired)
	require.ErrorIs(t, env.svc.RequestMagicLink(ctx, "garbage", "en"), ErrInvalidEmailFormat)
	require.Empty(t, env.magic.codes)
}

func TestGoogleSignIn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.google.profiles["good-token"] = &GoogleProfile{
		Email:         "g@gloria.ph",
		EmailVerified: true,
		Name:          "Gloria Santos",
	}

	tokens, err := env.svc.GoogleSignIn(ctx, "good-token")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	created, err := env.users.GetByEmail(ctx, "g@gloria.ph")
	require.NoError(t, err)
	require.NotNil(t, created.Name)
	require.Equal(t, "Gloria Santos", *created.Name)

	_, err = env.svc.GoogleSignIn(ctx, "bad-token")
	require.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestRefreshRotatesWithinSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)
	tokens, err := env.svc.Login(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)

	original, err := env.tokens.GetRefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	rotated, err := env.svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	next, err := env.tokens.GetRefreshToken(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, original.SessionID, next.SessionID, "rotation stays in the same session")
	require.NotNil(t, next.ParentRefreshTokenID)
	require.Equal(t, original.ID, *next.ParentRefreshTokenID)
}

func TestRefreshReplayRevokesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Register(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)
	tokens, err := env.svc.Login(ctx, "gloria@gloria.ph", "s3cret-password")
	require.NoError(t, err)

	rotated, err := env.svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)

	// Replaying the consumed token kills the whole session
	_, err = env.svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenRevoked)

	_, err = env.svc.RefreshAccessToken(ctx, rotated.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestRefreshUnknownToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.RefreshAccessToken(ctx, "never-issued")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMigrateRefreshTokensIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	adminIdent := authz.Identity{UserID: uuid.New(), Email: "admin@gloria.ph"}
	readerIdent := authz.Identity{UserID: uuid.New(), Email: "reader@gloria.ph"}

	_, err := env.svc.MigrateRefreshTokens(ctx, authz.Identity{})
	require.ErrorIs(t, err, authz.ErrAuthRequired)

	_, err = env.svc.MigrateRefreshTokens(ctx, readerIdent)
	require.ErrorIs(t, err, authz.ErrAdminRequired)

	// Seed one orphan and one legacy-expiry token
	userID := uuid.New()
	legacyExpiry := time.Now().Add(24 * time.Hour)
	env.tokens.tokens["orphan"] = &RefreshToken{ID: uuid.New(), TokenHash: "orphan"}
	env.tokens.tokens["legacy"] = &RefreshToken{
		ID:             uuid.New(),
		TokenHash:      "legacy",
		UserID:         &userID,
		ExpirationTime: &legacyExpiry,
	}

	result, err := env.svc.MigrateRefreshTokens(ctx, adminIdent)
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
	require.Equal(t, 1, result.Removed)

	migrated := env.tokens.tokens["legacy"]
	require.NotNil(t, migrated.ExpiresAt)
	require.Equal(t, legacyExpiry, *migrated.ExpiresAt)
	require.NotNil(t, migrated.ExpirationTime, "legacy column is left in place")
	require.NotContains(t, env.tokens.tokens, "orphan")
}
