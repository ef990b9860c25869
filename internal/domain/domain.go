package domain

import (
	"github.com/gradlink/gradlink-backend/internal/domain/matching"
	"github.com/gradlink/gradlink-backend/internal/domain/requests"
	"github.com/gradlink/gradlink-backend/internal/domain/user"
)

const (
	RoleStudent    = user.RoleStudent
	RoleSupervisor = user.RoleSupervisor
	RoleAdmin      = user.RoleAdmin
)

type User = user.User
type Student = user.Student
type Supervisor = user.Supervisor
type UserProjection = user.Projection

type Tag = matching.Tag
type TagAffinity = matching.TagAffinity
type TagSimilarity = matching.TagSimilarity
type Block = matching.Block

type RequestState = requests.RequestState
type SupervisionRequest = requests.SupervisionRequest

const (
	RequestPending   = requests.StatePending
	RequestAccepted  = requests.StateAccepted
	RequestRejected  = requests.StateRejected
	RequestWithdrawn = requests.StateWithdrawn
)

var (
	Project       = user.Project
	CanonicalPair = matching.CanonicalPair
)
