// Package identity provides user and group management with membership
// invariants and group notification bindings.
package identity

import (
	"context"

	"govhub/internal/domain"
)

// UserService provides user management operations.
type UserService struct {
	users domain.UserRepository
}

// NewUserService creates a user service.
func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// Create creates a new user.
func (s *UserService) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.users.Create(ctx, &domain.User{
		Name:  req.Name,
		Email: req.Email,
		Roles: req.Roles,
	})
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
