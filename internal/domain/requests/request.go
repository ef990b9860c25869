package requests

import (
	"time"

	"github.com/google/uuid"
)

// RequestState is the supervision request lifecycle state.
type RequestState string

const (
	StatePending   RequestState = "PENDING"
	StateAccepted  RequestState = "ACCEPTED"
	StateRejected  RequestState = "REJECTED"
	StateWithdrawn RequestState = "WITHDRAWN"
)

// Terminal reports whether no further transitions may leave the state.
func (s RequestState) Terminal() bool {
	return s == StateRejected || s == StateWithdrawn
}

func (s RequestState) Valid() bool {
	switch s {
	case StatePending, StateAccepted, StateRejected, StateWithdrawn:
		return true
	default:
		return false
	}
}

// SupervisionRequest rows are never deleted; terminal states are retained
// for cooldown gating and audit.
type SupervisionRequest struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID    uuid.UUID    `gorm:"type:uuid;not null;index;column:student_id" json:"student_id"`
	SupervisorID uuid.UUID    `gorm:"type:uuid;not null;index;column:supervisor_id" json:"supervisor_id"`
	State        RequestState `gorm:"not null;column:state" json:"state"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SupervisionRequest) TableName() string { return "supervision_request" }

// AllowedTransition checks the actor-role transition table. It answers
// only "may this role move a request from -> to"; ownership is checked
// separately at the service layer.
func AllowedTransition(role string, from, to RequestState) bool {
	switch role {
	case "student":
		return (from == StatePending || from == StateAccepted) && to == StateWithdrawn
	case "supervisor":
		return from == StatePending &&
			(to == StateAccepted || to == StateRejected || to == StateWithdrawn)
	case "admin":
		return !from.Terminal() && to == StateWithdrawn
	default:
		return false
	}
}
