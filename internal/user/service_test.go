package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, password, role string) (User, error) {
	args := m.Called(ctx, name, email, password, role)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

func TestService_Register(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")
	ctx := context.Background()

	params := RegisterParams{Name: "Alice", Email: "alice@example.com", Password: "secret"}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)

		mockRepo.On("Create", ctx, "Alice", "alice@example.com", mock.AnythingOfType("string"), "user").
			Return(User{ID: "user-1", Name: "Alice", Email: "alice@example.com", Role: "user"}, nil).Once()

		token, u, err := svc.Register(ctx, params)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "user-1", u.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Duplicate email", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)

		dup := errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		mockRepo.On("Create", ctx, "Alice", "alice@example.com", mock.AnythingOfType("string"), "user").
			Return(User{}, dup).Once()

		_, _, err := svc.Register(ctx, params)

		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestService_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")
	ctx := context.Background()

	hash, _ := HashPassword("secret")
	stored := User{ID: "user-1", Email: "alice@example.com", Password: hash, Role: "user"}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)

		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(stored, nil).Once()

		token, u, err := svc.Login(ctx, "alice@example.com", "secret")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "user-1", u.ID)
	})

	t.Run("Error - Unknown email", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)

		mockRepo.On("FindByEmail", ctx, "ghost@example.com").
			Return(User{}, sql.ErrNoRows).Once()

		_, _, err := svc.Login(ctx, "ghost@example.com", "secret")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Error - Wrong password", func(t *testing.T) {
		mockRepo := new(MockRepository)
		svc := NewService(mockRepo)

		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(stored, nil).Once()

		_, _, err := svc.Login(ctx, "alice@example.com", "wrong")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
