package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govhub/internal/domain"
	"govhub/internal/testutil"
)

func TestUserService_Create(t *testing.T) {
	var created *domain.User
	users := &testutil.MockUserRepo{
		CreateFn: func(ctx context.Context, u *domain.User) (*domain.User, error) {
			u.ID = "u1"
			created = u
			return u, nil
		},
	}
	svc := NewUserService(users)

	user, err := svc.Create(context.Background(), domain.CreateUserRequest{
		Name:  "Alice",
		Email: "alice@example.com",
		Roles: []string{domain.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, created.IsAdmin())
}

func TestUserService_Create_MissingFields(t *testing.T) {
	svc := NewUserService(&testutil.MockUserRepo{})
	var validation *domain.ValidationError

	_, err := svc.Create(context.Background(), domain.CreateUserRequest{Email: "a@b.c"})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Create(context.Background(), domain.CreateUserRequest{Name: "Alice"})
	assert.ErrorAs(t, err, &validation)
}
