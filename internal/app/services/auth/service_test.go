package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntoS03/ProyectoFinal/internal/app/services/auth"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
	"github.com/AntoS03/ProyectoFinal/internal/infra/security"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

func newService(t *testing.T) (*auth.Service, *security.JWTIssuer) {
	t.Helper()
	issuer, err := security.NewJWTIssuer("unit-test-secret", time.Hour)
	require.NoError(t, err)
	return &auth.Service{
		Users:     memory.UserRepository{Store: memory.NewStore()},
		Passwords: security.BcryptHasher{Cost: 4},
		Tokens:    issuer,
	}, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, auth.RegisterParams{Email: "Host@Example.com", Password: "s3cret-pass", Role: "owner"})
	require.NoError(t, err)
	require.Equal(t, user.RoleOwner, reg.User.Role)
	require.NotEmpty(t, reg.Token)
	require.NotEqual(t, "s3cret-pass", reg.User.PasswordHash)

	login, err := svc.Login(ctx, auth.LoginParams{Email: " host@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, login.User.ID)

	resolved, err := svc.ResolveToken(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, resolved.ID)
}

func TestRegisterRejections(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Password: "short"})
	require.ErrorIs(t, err, auth.ErrPasswordTooShort)
	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Password: "long-enough", Role: "admin"})
	require.ErrorIs(t, err, auth.ErrRoleNotAllowed)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Password: "long-enough"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, auth.RegisterParams{Email: "A@example.com", Password: "long-enough"})
	require.ErrorIs(t, err, user.ErrEmailAlreadyUsed)
}

func TestLoginAndTokenFailures(t *testing.T) {
	svc, issuer := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, auth.RegisterParams{Email: "a@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, auth.LoginParams{Email: "a@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, auth.LoginParams{Email: "nobody@example.com", Password: "long-enough"})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.ResolveToken(ctx, "")
	require.ErrorIs(t, err, auth.ErrTokenRequired)
	_, err = svc.ResolveToken(ctx, "garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	// a valid token for a user that no longer exists
	ghost := &user.User{ID: "ghost", Email: "ghost@example.com", Role: user.RoleGuest}
	token, _, err := issuer.Issue(ghost)
	require.NoError(t, err)
	_, err = svc.ResolveToken(ctx, token)
	require.True(t, errors.Is(err, auth.ErrInvalidToken))
}
