package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, login, passwordHash string) (int, error) {
	args := m.Called(ctx, login, passwordHash)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) FindByLogin(ctx context.Context, login string) (User, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, NewCredentialsValidator(), slog.Default())
	svc.cost = bcrypt.MinCost
	return svc
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	login := "lifter"
	password := "squat2024"

	mockRepo.On("Create", mock.Anything, login, mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	})).Return(123, nil)

	userID, err := service.Register(context.Background(), login, password)
	assert.NoError(t, err)
	assert.Equal(t, 123, userID)

	mockRepo.AssertExpectations(t)
}

func TestService_Register_InvalidInput(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.Register(context.Background(), "ab", "squat2024")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Register(context.Background(), "lifter", "short1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Register_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, "lifter", mock.AnythingOfType("string")).Return(0, ErrLoginTaken)

	_, err := service.Register(context.Background(), "lifter", "squat2024")
	assert.ErrorIs(t, err, ErrLoginTaken)

	mockRepo.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("squat2024"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := User{ID: 7, Login: "lifter", Password: string(hash)}

	tests := []struct {
		name     string
		login    string
		password string
		repoUser User
		repoErr  error
		wantErr  error
	}{
		{name: "success", login: "lifter", password: "squat2024", repoUser: stored},
		{name: "wrong password", login: "lifter", password: "bench2024", repoUser: stored, wantErr: ErrInvalidAuth},
		{name: "unknown user", login: "ghost", password: "squat2024", repoErr: ErrNotFound, wantErr: ErrInvalidAuth},
		{name: "storage failure", login: "lifter", password: "squat2024", repoErr: errors.New("connection reset"), wantErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)
			mockRepo.On("FindByLogin", mock.Anything, tt.login).Return(tt.repoUser, tt.repoErr)

			u, err := service.Authenticate(context.Background(), tt.login, tt.password)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 7, u.ID)
		})
	}
}

func TestService_Authenticate_InvalidLogin(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	_, err := service.Authenticate(context.Background(), "a b", "squat2024")
	assert.ErrorIs(t, err, ErrInvalidAuth)
}
