package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	dom "taskhub/internal/domain"
	"taskhub/internal/repo"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const (
	nameMinLen     = 2
	nameMaxLen     = 30
	passwordMinLen = 6
)

// ProfileUpdate holds the optional fields of a profile change.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService handles registration, credentials and profiles.
type UserService struct {
	repo repo.UserRepo
	cost int
}

// NewUserService returns a new UserService.
func NewUserService(repo repo.UserRepo) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// ValidateCredentials checks email and password; returns the user if valid.
func (s *UserService) ValidateCredentials(ctx context.Context, email, password string) (dom.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.User{}, ErrInvalidCredentials
		}
		return dom.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates a new user with a hashed password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (dom.User, error) {
	name, err := validName(name)
	if err != nil {
		return dom.User{}, err
	}
	email, err = validEmail(email)
	if err != nil {
		return dom.User{}, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.repo.Create(ctx, dom.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return dom.User{}, errUserExists()
		}
		return dom.User{}, err
	}
	return u, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (dom.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.User{}, notFound("user %s not found", id)
		}
		return dom.User{}, err
	}
	return u, nil
}

// List returns every user, for the assignment picker.
func (s *UserService) List(ctx context.Context) ([]dom.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile changes the principal's own name, email or password.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (dom.User, error) {
	var patch dom.UserPatch
	if upd.Name != nil {
		name, err := validName(*upd.Name)
		if err != nil {
			return dom.User{}, err
		}
		patch.Name = &name
	}
	if upd.Email != nil {
		email, err := validEmail(*upd.Email)
		if err != nil {
			return dom.User{}, err
		}
		patch.Email = &email
	}
	if upd.Password != nil {
		hash, err := s.hash(*upd.Password)
		if err != nil {
			return dom.User{}, err
		}
		patch.PasswordHash = &hash
	}
	if patch.Name == nil && patch.Email == nil && patch.PasswordHash == nil {
		return dom.User{}, invalid("no fields to update")
	}
	u, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return dom.User{}, notFound("user %s not found", id)
		case errors.Is(err, repo.ErrDuplicate):
			return dom.User{}, errUserExists()
		}
		return dom.User{}, err
	}
	return u, nil
}

func (s *UserService) hash(password string) (string, error) {
	if utf8.RuneCountInString(password) < passwordMinLen {
		return "", invalid("password must be at least %d characters", passwordMinLen)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < nameMinLen || n > nameMaxLen {
		return "", invalid("name must be %d to %d characters", nameMinLen, nameMaxLen)
	}
	return name, nil
}

func validEmail(email string) (string, error) {
	email = normalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email %q is not valid", email)
	}
	return email, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func errUserExists() error {
	return fmt.Errorf("%w: email already in use", ErrConflict)
}
