package dto

import (
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

func MapUserProfile(u *user.User) UserProfile {
	return UserProfile{
		ID:        string(u.ID),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func NewAuthResponse(u *user.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: MapUserProfile(u)}
}
