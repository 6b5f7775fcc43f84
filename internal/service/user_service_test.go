package service

import (
	"context"
	"testing"

	"taskhub/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService() *UserService {
	s := NewUserService(repo.NewMemoryUserRepo())
	s.cost = bcrypt.MinCost
	return s
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	u, err := s.Register(ctx, " Ann ", "Ann@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	got, err := s.ValidateCredentials(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.ValidateCredentials(ctx, "ann@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.ValidateCredentials(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Register(ctx, "Ann Again", "ann@example.com", "secret2")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_RegisterValidation(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	_, err := s.Register(ctx, "A", "a@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Register(ctx, "Ann", "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Register(ctx, "Ann", "Ann <ann@example.com>", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.Register(ctx, "Ann", "ann@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserService_UpdateProfile(t *testing.T) {
	s := newUserService()
	ctx := context.Background()
	ann, err := s.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	_, err = s.Register(ctx, "Bob", "bob@example.com", "secret1")
	require.NoError(t, err)

	name := "Annie"
	pw := "new-secret"
	u, err := s.UpdateProfile(ctx, ann.ID, ProfileUpdate{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)
	_, err = s.ValidateCredentials(ctx, "ann@example.com", "new-secret")
	assert.NoError(t, err)

	taken := "bob@example.com"
	_, err = s.UpdateProfile(ctx, ann.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.UpdateProfile(ctx, ann.ID, ProfileUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.UpdateProfile(ctx, "ghost", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
