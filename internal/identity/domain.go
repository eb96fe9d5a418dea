package identity

import (
	"time"

	"github.com/campushire/campushire/internal/shared"
)

// Account represents a portal account row. The role is assigned at
// registration and has no change flow.
type Account struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          shared.Role
	FirstName     string
	LastName      string
	AvatarKey     string
	EmailVerified bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity projects the account into the shape consumed by the guard and
// the feature handlers.
func (a *Account) Identity() *shared.Identity {
	if a == nil {
		return nil
	}
	return &shared.Identity{
		ID:            a.ID,
		Email:         a.Email,
		Role:          a.Role,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		AvatarKey:     a.AvatarKey,
		EmailVerified: a.EmailVerified,
	}
}
