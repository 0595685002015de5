package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("supersecret")
	require.NoError(t, err)
	require.NoError(t, h.Compare(hash, "supersecret"))
	require.Error(t, h.Compare(hash, "wrong-password"))
}

func TestJWTIssueAndVerify(t *testing.T) {
	issuer, err := NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	u := &user.User{ID: "u-1", Email: "ana@example.com", Role: user.RoleOwner}

	token, exp, err := issuer.Issue(u)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, user.RoleOwner, claims.Role)
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := &JWTIssuer{Secret: []byte("test-secret"), TTL: time.Hour, Now: func() time.Time { return past }}
	token, _, err := issuer.Issue(&user.User{ID: "u-1"})
	require.NoError(t, err)

	verifier := &JWTIssuer{Secret: []byte("test-secret")}
	_, err = verifier.Verify(token)
	require.Error(t, err)

	other := &JWTIssuer{Secret: []byte("other-secret")}
	fresh, _, err := verifier.Issue(&user.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = other.Verify(fresh)
	require.Error(t, err)
}

func TestNewJWTIssuerRequiresSecret(t *testing.T) {
	_, err := NewJWTIssuer("", time.Hour)
	require.ErrorIs(t, err, ErrSecretRequired)
}

func TestRandomSecretLength(t *testing.T) {
	s, err := RandomSecret(32)
	require.NoError(t, err)
	require.Len(t, s, 43)
}
