package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// AffinityInput is one ranked tag in a caller's interest list.
type AffinityInput struct {
	TagID    uuid.UUID `json:"tag_id" binding:"required"`
	Priority int       `json:"priority" binding:"required"`
}

type ProfileService interface {
	ListTags(ctx context.Context) ([]*types.Tag, error)
	SetAffinities(ctx context.Context, inputs []AffinityInput) ([]*types.TagAffinity, error)
	MyAffinities(ctx context.Context) ([]*types.TagAffinity, error)
	SimilarTags(ctx context.Context, tagID uuid.UUID, minSimilarity float64) ([]repos.SimilarTag, error)
	ListAvailableSupervisors(ctx context.Context) ([]*types.Supervisor, error)
	BlockSupervisor(ctx context.Context, supervisorID uuid.UUID) error
	UnblockSupervisor(ctx context.Context, supervisorID uuid.UUID) error
}

type profileService struct {
	log *logger.Logger

	tagRepo        repos.TagRepo
	affinityRepo   repos.TagAffinityRepo
	similarityRepo repos.TagSimilarityRepo
	supervisorRepo repos.SupervisorRepo
	blockRepo      repos.BlockRepo
}

func NewProfileService(
	tagRepo repos.TagRepo,
	affinityRepo repos.TagAffinityRepo,
	similarityRepo repos.TagSimilarityRepo,
	supervisorRepo repos.SupervisorRepo,
	blockRepo repos.BlockRepo,
	log *logger.Logger,
) ProfileService {
	return &profileService{
		log:            log.With("service", "ProfileService"),
		tagRepo:        tagRepo,
		affinityRepo:   affinityRepo,
		similarityRepo: similarityRepo,
		supervisorRepo: supervisorRepo,
		blockRepo:      blockRepo,
	}
}

func (s *profileService) actor(ctx context.Context, op string) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "no authenticated caller in context")
	}
	return rd, nil
}

func (s *profileService) ListTags(ctx context.Context) ([]*types.Tag, error) {
	const op = "profile.list_tags"
	if _, err := s.actor(ctx, op); err != nil {
		return nil, err
	}
	tags, err := s.tagRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	return tags, nil
}

// SetAffinities replaces the caller's ranked tag list. Priorities must
// be exactly 1..n with no gaps or repeats; tag ids must exist.
func (s *profileService) SetAffinities(ctx context.Context, inputs []AffinityInput) ([]*types.TagAffinity, error) {
	const op = "profile.set_affinities"

	rd, err := s.actor(ctx, op)
	if err != nil {
		return nil, err
	}

	seenTags := make(map[uuid.UUID]struct{}, len(inputs))
	seenPriorities := make(map[int]struct{}, len(inputs))
	tagIDs := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		if in.TagID == uuid.Nil {
			return nil, types.E(types.KindValidation, op, "tag id required")
		}
		if _, dup := seenTags[in.TagID]; dup {
			return nil, types.E(types.KindValidation, op, "duplicate tag in affinity list")
		}
		seenTags[in.TagID] = struct{}{}
		tagIDs = append(tagIDs, in.TagID)

		if in.Priority < 1 || in.Priority > len(inputs) {
			return nil, types.E(types.KindValidation, op, "priorities must run 1..n")
		}
		if _, dup := seenPriorities[in.Priority]; dup {
			return nil, types.E(types.KindValidation, op, "duplicate priority in affinity list")
		}
		seenPriorities[in.Priority] = struct{}{}
	}

	dbc := dbctx.Context{Ctx: ctx}
	if len(tagIDs) > 0 {
		found, err := s.tagRepo.GetByIDs(dbc, tagIDs)
		if err != nil {
			return nil, types.Wrap(types.KindInternal, op, err)
		}
		if len(found) != len(tagIDs) {
			return nil, types.E(types.KindValidation, op, "affinity list references unknown tags")
		}
	}

	rows := make([]*types.TagAffinity, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, &types.TagAffinity{
			ID:       uuid.New(),
			UserID:   rd.UserID,
			TagID:    in.TagID,
			Priority: in.Priority,
		})
	}
	if err := s.affinityRepo.ReplaceForUser(dbc, rd.UserID, rows); err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}

	s.log.Info("affinities replaced", "user_id", rd.UserID.String(), "count", len(rows))
	return rows, nil
}

func (s *profileService) MyAffinities(ctx context.Context) ([]*types.TagAffinity, error) {
	const op = "profile.my_affinities"
	rd, err := s.actor(ctx, op)
	if err != nil {
		return nil, err
	}
	rows, err := s.affinityRepo.GetByUserID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	return rows, nil
}

func (s *profileService) SimilarTags(ctx context.Context, tagID uuid.UUID, minSimilarity float64) ([]repos.SimilarTag, error) {
	const op = "profile.similar_tags"

	if _, err := s.actor(ctx, op); err != nil {
		return nil, err
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, types.E(types.KindValidation, op, "min similarity must be within [0,1]")
	}

	dbc := dbctx.Context{Ctx: ctx}
	tag, err := s.tagRepo.GetByID(dbc, tagID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if tag == nil {
		return nil, types.E(types.KindNotFound, op, "tag does not exist")
	}

	similar, err := s.similarityRepo.FindSimilarByTagID(dbc, tagID, minSimilarity)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	return similar, nil
}

func (s *profileService) ListAvailableSupervisors(ctx context.Context) ([]*types.Supervisor, error) {
	const op = "profile.list_available_supervisors"
	if _, err := s.actor(ctx, op); err != nil {
		return nil, err
	}
	supervisors, err := s.supervisorRepo.ListAvailable(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	return supervisors, nil
}

func (s *profileService) BlockSupervisor(ctx context.Context, supervisorID uuid.UUID) error {
	return s.mutateBlock(ctx, "profile.block_supervisor", supervisorID, s.blockRepo.Create)
}

func (s *profileService) UnblockSupervisor(ctx context.Context, supervisorID uuid.UUID) error {
	return s.mutateBlock(ctx, "profile.unblock_supervisor", supervisorID, s.blockRepo.Delete)
}

func (s *profileService) mutateBlock(ctx context.Context, op string, supervisorID uuid.UUID, apply func(dbctx.Context, uuid.UUID, uuid.UUID) error) error {
	rd, err := s.actor(ctx, op)
	if err != nil {
		return err
	}
	if rd.Role != types.RoleStudent || rd.ProfileID == uuid.Nil {
		return types.E(types.KindPermission, op, "only students manage blocks")
	}

	dbc := dbctx.Context{Ctx: ctx}
	supervisor, err := s.supervisorRepo.GetByID(dbc, supervisorID)
	if err != nil {
		return types.Wrap(types.KindInternal, op, err)
	}
	if supervisor == nil {
		return types.E(types.KindNotFound, op, "supervisor does not exist")
	}
	if err := apply(dbc, rd.ProfileID, supervisorID); err != nil {
		return types.Wrap(types.KindInternal, op, err)
	}
	return nil
}
