package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AntoS03/ProyectoFinal/internal/app/services/auth"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var ErrSecretRequired = errors.New("security: jwt secret required")

const defaultTokenTTL = time.Hour

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 bearer tokens carrying the user id in "sub".
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &JWTIssuer{Secret: []byte(secret), TTL: ttl, Issuer: "proyectofinal"}, nil
}

func (j *JWTIssuer) Issue(u *user.User) (string, time.Time, error) {
	if len(j.Secret) == 0 {
		return "", time.Time{}, ErrSecretRequired
	}
	now := j.now()
	exp := now.Add(j.ttl())
	c := claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (j *JWTIssuer) Verify(token string) (auth.Claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return auth.Claims{}, err
	}
	if !parsed.Valid || c.Subject == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	out := auth.Claims{UserID: c.Subject, Email: c.Email, Role: user.Role(c.Role)}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

func (j *JWTIssuer) ttl() time.Duration {
	if j.TTL > 0 {
		return j.TTL
	}
	return defaultTokenTTL
}

func (j *JWTIssuer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

var _ auth.TokenIssuer = (*JWTIssuer)(nil)
