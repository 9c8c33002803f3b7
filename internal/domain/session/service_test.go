package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockRepository) Validate(ctx context.Context, tokenHash string) (int, error) {
	args := m.Called(ctx, tokenHash)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func TestService_Create(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	var savedHash string
	mockRepo.On("Create", mock.Anything, 123, mock.MatchedBy(func(hash string) bool {
		savedHash = hash
		return len(hash) == 64
	}), mock.MatchedBy(func(expiresAt time.Time) bool {
		return expiresAt.After(time.Now().Add(59*time.Minute)) && expiresAt.Before(time.Now().Add(61*time.Minute))
	})).Return(nil)

	token, err := service.Create(context.Background(), 123)
	require.NoError(t, err)
	// 32 байта в base64 с паддингом
	assert.Len(t, token, 44)
	assert.Equal(t, hashToken(token), savedHash)

	mockRepo.AssertExpectations(t)
}

func TestService_Create_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, 0, slog.Default())

	mockRepo.On("Create", mock.Anything, 123, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(errors.New("database error"))

	_, err := service.Create(context.Background(), 123)
	assert.ErrorContains(t, err, "database error")
	assert.Equal(t, DefaultTTL, service.ttl)
}

func TestService_Validate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	mockRepo.On("Validate", mock.Anything, hashToken("good")).Return(42, nil)
	mockRepo.On("Validate", mock.Anything, hashToken("bad")).Return(0, ErrInvalidSession)

	userID, err := service.Validate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	_, err = service.Validate(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = service.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSession)

	mockRepo.AssertExpectations(t)
}

func TestService_Revoke(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, time.Hour, slog.Default())

	mockRepo.On("Revoke", mock.Anything, hashToken("token")).Return(nil)
	assert.NoError(t, service.Revoke(context.Background(), "token"))
	mockRepo.AssertExpectations(t)
}
