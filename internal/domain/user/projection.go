package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Projection is the filtered view of a user that is safe to hand to other
// users and to hold in the identity cache. Password and soft-delete state
// never leave the repo layer.
type Projection struct {
	UserID    uuid.UUID      `json:"user_id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      string         `json:"role"`
	ProfileID uuid.UUID      `json:"profile_id"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CachedAt  time.Time      `json:"cached_at"`
}

func Project(u *User, profileID uuid.UUID) *Projection {
	if u == nil {
		return nil
	}
	return &Projection{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		ProfileID: profileID,
		CachedAt:  time.Now().UTC(),
	}
}
