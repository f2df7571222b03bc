package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afinadao/membership/internal/cache"
	"github.com/afinadao/membership/internal/config"
	"github.com/afinadao/membership/internal/lib/jwt"
	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/services"
	"github.com/afinadao/membership/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type PrompterMock struct {
	mock.Mock
}

func (m *PrompterMock) SendLoginPrompt(ctx context.Context, chatID int64, requestID string) error {
	return m.Called(ctx, chatID, requestID).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type fixture struct {
	users    *UserRepoMock
	prompter *PrompterMock
	maker    *jwt.MakerImpl
	mr       *miniredis.Miniredis
	svc      *AuthService
}

func newFixture(t *testing.T) *fixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		users:    new(UserRepoMock),
		prompter: new(PrompterMock),
		maker:    jwt.NewJWTMaker("secret", time.Hour),
		mr:       mr,
	}
	f.svc = NewAuthService(f.users, c, f.prompter, f.maker, 5*time.Minute, time.Hour, newNoopLogger())
	return f
}

func (f *fixture) request(t *testing.T) string {
	f.users.On("GetUserByTelegramID", mock.Anything, int64(100)).
		Return(&models.User{ID: 1, TelegramID: 100, IsAdmin: true}, nil)
	f.prompter.On("SendLoginPrompt", mock.Anything, int64(100), mock.AnythingOfType("string")).Return(nil)

	id, err := f.svc.RequestLogin(context.Background(), 100)
	require.NoError(t, err)
	return id
}

func TestAuthService_FullHandshake(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.request(t)

	_, err := f.svc.Poll(ctx, id)
	require.ErrorIs(t, err, ErrLoginPending)

	status, err := f.svc.Resolve(ctx, id, 100, true)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, status)

	session, err := f.svc.Poll(ctx, id)
	require.NoError(t, err)

	claims, err := f.maker.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, int64(100), claims.TelegramID)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)

	// одноразовый обмен
	_, err = f.svc.Poll(ctx, id)
	require.ErrorIs(t, err, ErrLoginNotFound)
}

func TestAuthService_Denied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.request(t)

	status, err := f.svc.Resolve(ctx, id, 100, false)
	require.NoError(t, err)
	assert.Equal(t, StatusDenied, status)

	// повторное решение не меняет статус
	status, err = f.svc.Resolve(ctx, id, 100, true)
	require.NoError(t, err)
	assert.Equal(t, StatusDenied, status)

	_, err = f.svc.Poll(ctx, id)
	require.ErrorIs(t, err, ErrLoginDenied)
}

func TestAuthService_ResolveByOtherAccount(t *testing.T) {
	f := newFixture(t)
	id := f.request(t)

	_, err := f.svc.Resolve(context.Background(), id, 200, true)
	require.ErrorIs(t, err, services.ErrForbidden)
}

func TestAuthService_Expired(t *testing.T) {
	f := newFixture(t)
	id := f.request(t)

	f.mr.FastForward(6 * time.Minute)

	_, err := f.svc.Poll(context.Background(), id)
	require.ErrorIs(t, err, ErrLoginNotFound)
	_, err = f.svc.Resolve(context.Background(), id, 100, true)
	require.ErrorIs(t, err, ErrLoginNotFound)
}

func TestAuthService_ResolveKeepsTTL(t *testing.T) {
	f := newFixture(t)
	id := f.request(t)

	f.mr.FastForward(4 * time.Minute)
	_, err := f.svc.Resolve(context.Background(), id, 100, true)
	require.NoError(t, err)

	f.mr.FastForward(2 * time.Minute)
	_, err = f.svc.Poll(context.Background(), id)
	require.ErrorIs(t, err, ErrLoginNotFound)
}

func TestAuthService_RequestLogin_Forbidden(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		err  error
	}{
		{name: "unknown user", err: storage.ErrNotFound},
		{name: "not admin", user: &models.User{ID: 2, TelegramID: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.user != nil {
				f.users.On("GetUserByTelegramID", mock.Anything, int64(100)).Return(tt.user, nil)
			} else {
				f.users.On("GetUserByTelegramID", mock.Anything, int64(100)).Return(nil, tt.err)
			}

			_, err := f.svc.RequestLogin(context.Background(), 100)
			require.ErrorIs(t, err, services.ErrForbidden)
			f.prompter.AssertNotCalled(t, "SendLoginPrompt", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_RequestLogin_PromptFails(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetUserByTelegramID", mock.Anything, int64(100)).
		Return(&models.User{ID: 1, TelegramID: 100, IsAdmin: true}, nil)
	f.prompter.On("SendLoginPrompt", mock.Anything, int64(100), mock.Anything).Return(errors.New("chat not found"))

	_, err := f.svc.RequestLogin(context.Background(), 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.RequestLogin")
}
