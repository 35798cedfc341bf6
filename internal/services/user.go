package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claimlab/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.UserSummary, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateRole(ctx context.Context, username, role string) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

type RegisterInput struct {
	Username string `validate:"required,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,max=72"`
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]types.UserSummary, error) {
	return s.repo.List(ctx)
}

// Register stores a new account with role "user". The bcrypt hash is kept
// for completeness; login does not verify it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return types.User{}, invalidInput(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// max counts runes; bcrypt limits bytes.
		return types.User{}, fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		Role:         types.RoleUser,
		PasswordHash: string(hashed),
	})
	if err != nil {
		return types.User{}, fmt.Errorf("create user %s: %w", in.Username, err)
	}
	return user, nil
}

// SetRole changes the stored role of username. Tokens issued before the
// change keep their old role.
func (s *UserService) SetRole(ctx context.Context, username, role string) error {
	in := struct {
		Username string `validate:"required"`
		Role     string `validate:"oneof=user admin"`
	}{Username: strings.TrimSpace(username), Role: role}
	if err := validate.Struct(in); err != nil {
		return invalidInput(err)
	}
	if err := s.repo.UpdateRole(ctx, in.Username, in.Role); err != nil {
		return fmt.Errorf("set role of %s: %w", in.Username, err)
	}
	return nil
}
