package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
	ErrTokenRequired      = errors.New("auth: token required")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrRoleNotAllowed     = errors.New("auth: role cannot be self-assigned")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Claims is what a verified bearer token says about its holder.
type Claims struct {
	UserID    string
	Email     string
	Role      user.Role
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(u *user.User) (token string, expiresAt time.Time, err error)
	Verify(token string) (Claims, error)
}

type Service struct {
	Users     user.Repository
	Passwords PasswordHasher
	Tokens    TokenIssuer
	Logger    *slog.Logger
}

type RegisterParams struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

type LoginParams struct {
	Email    string
	Password string
}

type Result struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a guest or owner account and signs it in. Admins are only
// created from fixtures or directly in the store.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Result, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	role, err := user.ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	if role == user.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}
	if utf8.RuneCountInString(params.Password) < 8 {
		return nil, ErrPasswordTooShort
	}
	email := user.NormalizeEmail(params.Email)
	if existing, err := s.Users.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, user.ErrEmailAlreadyUsed
	} else if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	u, err := user.New(user.CreateParams{
		ID:           user.ID(uuid.NewString()),
		Email:        email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	token, exp, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	}
	return &Result{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*Result, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := user.NormalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(u.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "user authenticated", "user_id", u.ID)
	}
	return &Result{User: u, Token: token, ExpiresAt: exp}, nil
}

// ResolveToken verifies token and reloads the user so that role changes made
// after the token was issued are honoured.
func (s *Service) ResolveToken(ctx context.Context, token string) (*user.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	u, err := s.Users.ByID(ctx, user.ID(claims.UserID))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token issuer required")
	default:
		return nil
	}
}
