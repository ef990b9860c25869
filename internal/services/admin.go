package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/listener"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// ListenerProbe is what admin operations need from the change listener.
type ListenerProbe interface {
	Status() listener.Status
	Healthy(ctx context.Context) bool
}

type AdminService interface {
	CreateTags(ctx context.Context, names []string) ([]*types.Tag, error)
	UpsertSimilarity(ctx context.Context, a, b uuid.UUID, similarity float64) error
	InvalidateSimilarity(ctx context.Context) error
	ListenerStatus(ctx context.Context) (listener.Status, error)
	Health(ctx context.Context) (map[string]bool, error)
}

type adminService struct {
	log *logger.Logger

	tagRepo        repos.TagRepo
	similarityRepo repos.TagSimilarityRepo
	simCache       *cache.SimilarityCache
	identityCache  *cache.IdentityCache
	probe          ListenerProbe
}

func NewAdminService(
	tagRepo repos.TagRepo,
	similarityRepo repos.TagSimilarityRepo,
	simCache *cache.SimilarityCache,
	identityCache *cache.IdentityCache,
	probe ListenerProbe,
	log *logger.Logger,
) AdminService {
	return &adminService{
		log:            log.With("service", "AdminService"),
		tagRepo:        tagRepo,
		similarityRepo: similarityRepo,
		simCache:       simCache,
		identityCache:  identityCache,
		probe:          probe,
	}
}

func (s *adminService) requireAdmin(ctx context.Context, op string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.Role != types.RoleAdmin {
		return types.E(types.KindPermission, op, "admin only")
	}
	return nil
}

func (s *adminService) CreateTags(ctx context.Context, names []string) ([]*types.Tag, error) {
	const op = "admin.create_tags"

	if err := s.requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, types.E(types.KindValidation, op, "at least one tag name required")
	}
	seen := make(map[string]struct{}, len(names))
	rows := make([]*types.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, types.E(types.KindValidation, op, "tag names must be non-empty")
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, types.E(types.KindValidation, op, "duplicate tag name")
		}
		seen[key] = struct{}{}
		rows = append(rows, &types.Tag{ID: uuid.New(), Name: name})
	}

	created, err := s.tagRepo.Create(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	s.log.Info("tags created", "count", len(created))
	return created, nil
}

// UpsertSimilarity stores a curated pair similarity. Self pairs are
// rejected: identical tags score 1.0 without a row.
func (s *adminService) UpsertSimilarity(ctx context.Context, a, b uuid.UUID, similarity float64) error {
	const op = "admin.upsert_similarity"

	if err := s.requireAdmin(ctx, op); err != nil {
		return err
	}
	if a == uuid.Nil || b == uuid.Nil {
		return types.E(types.KindValidation, op, "both tag ids required")
	}
	if a == b {
		return types.E(types.KindValidation, op, "self pairs are implicit")
	}
	if similarity < 0 || similarity > 1 {
		return types.E(types.KindValidation, op, "similarity must be within [0,1]")
	}

	dbc := dbctx.Context{Ctx: ctx}
	tags, err := s.tagRepo.GetByIDs(dbc, []uuid.UUID{a, b})
	if err != nil {
		return types.Wrap(types.KindInternal, op, err)
	}
	if len(tags) != 2 {
		return types.E(types.KindNotFound, op, "pair references unknown tags")
	}

	if err := s.similarityRepo.Upsert(dbc, a, b, similarity); err != nil {
		return types.Wrap(types.KindInternal, op, err)
	}
	// Write through so readers see the new value before the old cached
	// entry would have expired.
	s.simCache.Set(ctx, a, b, similarity)
	s.log.Info("similarity upserted", "similarity", similarity)
	return nil
}

func (s *adminService) InvalidateSimilarity(ctx context.Context) error {
	const op = "admin.invalidate_similarity"
	if err := s.requireAdmin(ctx, op); err != nil {
		return err
	}
	s.simCache.Invalidate(ctx)
	return nil
}

func (s *adminService) ListenerStatus(ctx context.Context) (listener.Status, error) {
	const op = "admin.listener_status"
	if err := s.requireAdmin(ctx, op); err != nil {
		return "", err
	}
	return s.probe.Status(), nil
}

// Health reports cache and listener connectivity. Not admin-gated: load
// balancers probe it unauthenticated.
func (s *adminService) Health(ctx context.Context) (map[string]bool, error) {
	return map[string]bool{
		"cache":    s.identityCache.Healthy(ctx),
		"listener": s.probe.Healthy(ctx),
	}, nil
}
