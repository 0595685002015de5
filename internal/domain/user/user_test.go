package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewNormalizesEmailAndAllowsEmptyNames(t *testing.T) {
	u, err := New(CreateParams{ID: "u1", Email: "  Ana@Example.COM ", PasswordHash: "h"})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", u.Email)
	require.Equal(t, RoleGuest, u.Role)
	require.Empty(t, u.FullName())
}

func TestNewValidation(t *testing.T) {
	_, err := New(CreateParams{Email: "a@b.c", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrIDRequired)
	_, err = New(CreateParams{ID: "u1", Email: "not-an-email", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrInvalidEmail)
	_, err = New(CreateParams{ID: "u1", Email: "a@b.c"})
	require.ErrorIs(t, err, ErrPasswordHashMissing)
	_, err = New(CreateParams{ID: "u1", Email: "a@b.c", PasswordHash: "h", Role: "superuser"})
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestParseRoleAliases(t *testing.T) {
	for in, want := range map[string]Role{"": RoleGuest, "huesped": RoleGuest, "Host": RoleOwner, "propietario": RoleOwner, "admin": RoleAdmin} {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestPromoteKeepsAdmin(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{Role: RoleGuest}
	require.NoError(t, u.Promote(RoleOwner, now))
	require.Equal(t, RoleOwner, u.Role)

	a := &User{Role: RoleAdmin}
	require.NoError(t, a.Promote(RoleOwner, now))
	require.Equal(t, RoleAdmin, a.Role)
	require.ErrorIs(t, u.Promote("", now), ErrInvalidRole)
}
