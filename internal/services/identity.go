package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// IdentityService serves user projections through the identity cache
// with a database fallback on miss.
type IdentityService interface {
	Me(ctx context.Context) (*types.UserProjection, error)
	Get(ctx context.Context, userID uuid.UUID) (*types.UserProjection, error)
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type identityService struct {
	log *logger.Logger

	userRepo       repos.UserRepo
	studentRepo    repos.StudentRepo
	supervisorRepo repos.SupervisorRepo
	identityCache  *cache.IdentityCache
}

func NewIdentityService(
	userRepo repos.UserRepo,
	studentRepo repos.StudentRepo,
	supervisorRepo repos.SupervisorRepo,
	identityCache *cache.IdentityCache,
	log *logger.Logger,
) IdentityService {
	return &identityService{
		log:            log.With("service", "IdentityService"),
		userRepo:       userRepo,
		studentRepo:    studentRepo,
		supervisorRepo: supervisorRepo,
		identityCache:  identityCache,
	}
}

func (s *identityService) Me(ctx context.Context) (*types.UserProjection, error) {
	const op = "identity.me"

	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "no authenticated caller in context")
	}
	return s.load(ctx, op, rd.UserID)
}

func (s *identityService) Get(ctx context.Context, userID uuid.UUID) (*types.UserProjection, error) {
	const op = "identity.get"

	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "no authenticated caller in context")
	}
	if rd.Role != types.RoleAdmin && rd.UserID != userID {
		return nil, types.E(types.KindPermission, op, "cannot read another user's projection")
	}
	return s.load(ctx, op, userID)
}

// Invalidate drops a projection by key; the manual counterpart of what
// the change listener does on identity-table events.
func (s *identityService) Invalidate(ctx context.Context, userID uuid.UUID) error {
	const op = "identity.invalidate"

	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.Role != types.RoleAdmin {
		return types.E(types.KindPermission, op, "admin only")
	}
	s.identityCache.Evict(ctx, userID)
	s.log.Info("identity projection evicted", "user_id", userID.String())
	return nil
}

func (s *identityService) load(ctx context.Context, op string, userID uuid.UUID) (*types.UserProjection, error) {
	if projection, ok := s.identityCache.Get(ctx, userID); ok {
		return projection, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	found, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if len(found) == 0 {
		return nil, types.E(types.KindNotFound, op, "user does not exist")
	}
	user := found[0]

	profileID, err := s.profileID(dbc, user)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}

	projection := types.Project(user, profileID)
	s.identityCache.Set(ctx, userID, projection)
	return projection, nil
}

func (s *identityService) profileID(dbc dbctx.Context, user *types.User) (uuid.UUID, error) {
	switch user.Role {
	case types.RoleStudent:
		student, err := s.studentRepo.GetByUserID(dbc, user.ID)
		if err != nil || student == nil {
			return uuid.Nil, err
		}
		return student.ID, nil
	case types.RoleSupervisor:
		supervisor, err := s.supervisorRepo.GetByUserID(dbc, user.ID)
		if err != nil || supervisor == nil {
			return uuid.Nil, err
		}
		return supervisor.ID, nil
	default:
		return uuid.Nil, nil
	}
}
