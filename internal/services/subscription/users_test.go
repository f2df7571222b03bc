package subscription

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afinadao/membership/internal/models"
	"github.com/afinadao/membership/internal/storage"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) UpsertUser(ctx context.Context, user models.DummyUser) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) LinkDiscord(ctx context.Context, telegramID int64, link models.DummyDiscordLink) (*models.User, error) {
	args := m.Called(ctx, telegramID, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) LinkEmail(ctx context.Context, telegramID int64, link models.DummyEmailLink) (*models.User, error) {
	args := m.Called(ctx, telegramID, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListAudit(ctx context.Context, userID *int64, limit, offset int) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditEntry), args.Error(1)
}

func TestUserService_Link(t *testing.T) {
	r := new(UserRepoMock)
	s := NewUserService(r, newNoopLogger())

	discord := models.DummyDiscordLink{DiscordID: "123456"}
	r.On("LinkDiscord", mock.Anything, int64(100), discord).Return(&models.User{ID: 1, DiscordID: "123456"}, nil)
	email := models.DummyEmailLink{Email: "a@b.io"}
	r.On("LinkEmail", mock.Anything, int64(200), email).Return(nil, storage.ErrNotFound)

	u, err := s.LinkDiscord(context.Background(), 100, discord)
	require.NoError(t, err)
	assert.Equal(t, "123456", u.DiscordID)

	_, err = s.LinkEmail(context.Background(), 200, email)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserService_ListAudit(t *testing.T) {
	r := new(UserRepoMock)
	s := NewUserService(r, newNoopLogger())

	r.On("ListAudit", mock.Anything, (*int64)(nil), 50, 0).Return([]*models.AuditEntry{{ID: 1}}, nil)

	entries, err := s.ListAudit(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
