package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/authcore/internal/auth"
	"github.com/go-authgate/authcore/internal/mocks"
	"github.com/go-authgate/authcore/internal/models"
	"github.com/go-authgate/authcore/internal/store"
	"github.com/go-authgate/authcore/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-for-jwt-signing"

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	return h
}

func newTestTokens(t *testing.T, opts ...token.Option) *token.LocalTokenProvider {
	t.Helper()
	p, err := token.NewLocalTokenProvider(testSecret, "HS256", opts...)
	require.NoError(t, err)
	return p
}

func newTestUserService(t *testing.T, db *store.Store, opts ...token.Option) *UserService {
	t.Helper()
	h := newTestHasher(t)
	return NewUserService(
		db,
		auth.NewLocalAuthProvider(db, h),
		h,
		newTestTokens(t, opts...),
		30*time.Minute,
		nil,
	)
}

func TestRegister_Success(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	user, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	stored, err := db.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"))
}

func TestRegister_Duplicate(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice@example.com", "another-password")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	count, err := db.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRegister_EmailIsCaseSensitive(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "Alice@example.com", "secret123")
	assert.NoError(t, err)
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "race@example.com", "secret123")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrDuplicateIdentity)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	count, err := db.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRegister_StorageConflictAfterPrecheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockUserDirectory(ctrl)

	gomock.InOrder(
		directory.EXPECT().
			GetUserByEmail(gomock.Any(), "alice@example.com").
			Return(nil, store.ErrRecordNotFound),
		directory.EXPECT().
			CreateUser(gomock.Any(), gomock.Any()).
			Return(store.ErrEmailConflict),
	)

	svc := NewUserService(directory, nil, newTestHasher(t), nil, time.Minute, nil)
	user, err := svc.Register(context.Background(), "alice@example.com", "secret123")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegister_DirectoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockUserDirectory(ctrl)
	dbErr := errors.New("database is locked")

	directory.EXPECT().
		GetUserByEmail(gomock.Any(), "alice@example.com").
		Return(nil, dbErr)

	svc := NewUserService(directory, nil, newTestHasher(t), nil, time.Minute, nil)
	_, err := svc.Register(context.Background(), "alice@example.com", "secret123")

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(context.Background(), "alice@example.com", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	_, err = db.GetUserByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestLogin_Success(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.TokenString)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, "alice@example.com", result.Claims["sub"])
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), result.ExpiresAt, 5*time.Second)
}

func TestLogin_UniformFailure(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "secret123")
	_, wrongErr := svc.Login(context.Background(), "alice@example.com", "wrong-password")

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLogin_AuthenticatorError(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockAuthProvider(ctrl)
	boom := errors.New("connection refused")

	provider.EXPECT().
		Authenticate(gomock.Any(), "alice@example.com", "secret123").
		Return(nil, boom)
	provider.EXPECT().Name().Return("local")

	svc := NewUserService(nil, provider, nil, newTestTokens(t), time.Minute, nil)
	_, err := svc.Login(context.Background(), "alice@example.com", "secret123")

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)

	registered, err := svc.Register(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)
	result, err := svc.Login(context.Background(), "alice@example.com", "secret123")
	require.NoError(t, err)

	user, err := svc.Resolve(context.Background(), result.TokenString)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestResolve_Failures(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)
	tokens := newTestTokens(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	otherSecret, err := token.NewLocalTokenProvider("some-other-secret", "HS256")
	require.NoError(t, err)
	forged, err := otherSecret.GenerateToken(ctx, "alice@example.com", nil, time.Minute)
	require.NoError(t, err)

	ghost, err := tokens.GenerateToken(ctx, "ghost@example.com", nil, time.Minute)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	expiredTokens := newTestTokens(t, token.WithClock(func() time.Time { return past }))
	expired, err := expiredTokens.GenerateToken(ctx, "alice@example.com", nil, time.Minute)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":         "garbage",
		"empty":           "",
		"wrong secret":    forged.TokenString,
		"unknown subject": ghost.TokenString,
		"expired":         expired.TokenString,
	} {
		t.Run(name, func(t *testing.T) {
			user, err := svc.Resolve(ctx, raw)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, ErrCredentialsInvalid)
		})
	}
}

func TestResolve_AfterDeletion(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	result, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, result.TokenString)
	require.NoError(t, err)

	require.NoError(t, db.DeleteUser(ctx, user.ID))

	resolved, err := svc.Resolve(ctx, result.TokenString)
	assert.Nil(t, resolved)
	assert.ErrorIs(t, err, ErrCredentialsInvalid)
}

func TestEnsureSuperuser(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperuser(ctx, "admin@example.com", "changethis"))
	// Idempotent
	require.NoError(t, svc.EnsureSuperuser(ctx, "admin@example.com", "other"))

	count, err := db.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.Login(ctx, "admin@example.com", "changethis")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "admin@example.com", "other")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureSuperuser_GeneratedPassword(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperuser(ctx, "admin@example.com", ""))

	user, err := db.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.True(t, user.IsActive)
}

func TestEnsureSuperuser_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	directory := mocks.NewMockUserDirectory(ctrl)

	svc := NewUserService(directory, nil, nil, nil, time.Minute, nil)
	assert.NoError(t, svc.EnsureSuperuser(context.Background(), "", "secret"))
}

func TestUserService_InactiveAccountCannotLogin(t *testing.T) {
	db := setupTestStore(t)
	svc := newTestUserService(t, db)
	ctx := context.Background()

	user, err := svc.Register(ctx, "bob@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, db.DB().Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("is_active", false).Error)

	_, err = svc.Login(ctx, "bob@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
