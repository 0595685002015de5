package support

import "github.com/AntoS03/ProyectoFinal/internal/domain/user"

// Actor identifies the caller of a command or query. Embedding it gives a
// command the ActorID method the authentication middleware looks for.
type Actor struct {
	UserID string
	Role   user.Role
}

func (a Actor) ActorID() string { return a.UserID }

func (a Actor) IsAdmin() bool { return a.Role == user.RoleAdmin }

func (a Actor) Anonymous() bool { return a.UserID == "" }
