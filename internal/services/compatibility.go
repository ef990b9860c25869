package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

const prefetchConcurrency = 8

// CompatibilityService scores how well a candidate's tag list matches a
// seeker's ranked affinities.
type CompatibilityService interface {
	Score(ctx context.Context, seeker, candidate []*types.TagAffinity) (float64, error)
}

type compatibilityService struct {
	log      *logger.Logger
	simCache *cache.SimilarityCache
	simRepo  repos.TagSimilarityRepo
}

func NewCompatibilityService(simCache *cache.SimilarityCache, simRepo repos.TagSimilarityRepo, log *logger.Logger) CompatibilityService {
	return &compatibilityService{
		log:      log.With("service", "CompatibilityService"),
		simCache: simCache,
		simRepo:  simRepo,
	}
}

// Score computes sum over seeker tags of normalized weight times the
// best similarity against any candidate tag. Weights derive from the
// seeker's priorities: the worst priority gets weight 1, the best gets
// maxPriority, then everything is normalized to sum to 1.
func (s *compatibilityService) Score(ctx context.Context, seeker, candidate []*types.TagAffinity) (float64, error) {
	if len(seeker) == 0 || len(candidate) == 0 {
		return 0, nil
	}

	maxPriority := 0
	for _, aff := range seeker {
		if aff.Priority > maxPriority {
			maxPriority = aff.Priority
		}
	}

	total := 0.0
	rawWeights := make([]float64, len(seeker))
	for i, aff := range seeker {
		w := float64(maxPriority + 1 - aff.Priority)
		rawWeights[i] = w
		total += w
	}
	if total <= 0 {
		return 0, nil
	}

	s.prefetch(ctx, seeker, candidate)

	score := 0.0
	for i, aff := range seeker {
		maxSim := 0.0
		for _, cand := range candidate {
			sim := s.similarity(ctx, aff.TagID, cand.TagID)
			if sim > maxSim {
				maxSim = sim
			}
		}
		score += (rawWeights[i] / total) * maxSim
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

// similarity resolves one pair through the cache with store fallback.
// Store failure degrades to 0 with a warning; scoring stays best-effort
// rather than failing the whole match because of one edge.
func (s *compatibilityService) similarity(ctx context.Context, a, b uuid.UUID) float64 {
	if a == b {
		return 1.0
	}
	if val, ok := s.simCache.Get(ctx, a, b); ok {
		return val
	}
	val, _, err := s.simRepo.GetPair(dbctx.Context{Ctx: ctx}, a, b)
	if err != nil {
		s.log.Warn("similarity lookup failed, scoring pair as 0", "error", err)
		return 0
	}
	s.simCache.Set(ctx, a, b, val)
	return val
}

// prefetch resolves every cache-missing pair of the seeker+candidate tag
// union concurrently. Failures are isolated per pair; the batch never
// aborts.
func (s *compatibilityService) prefetch(ctx context.Context, seeker, candidate []*types.TagAffinity) {
	union := make([]uuid.UUID, 0, len(seeker)+len(candidate))
	seen := make(map[uuid.UUID]struct{}, len(seeker)+len(candidate))
	for _, aff := range seeker {
		if _, ok := seen[aff.TagID]; !ok {
			seen[aff.TagID] = struct{}{}
			union = append(union, aff.TagID)
		}
	}
	for _, aff := range candidate {
		if _, ok := seen[aff.TagID]; !ok {
			seen[aff.TagID] = struct{}{}
			union = append(union, aff.TagID)
		}
	}

	type pair struct{ a, b uuid.UUID }
	var missing []pair
	for i := 0; i < len(union); i++ {
		for j := i + 1; j < len(union); j++ {
			a, b := types.CanonicalPair(union[i], union[j])
			if _, ok := s.simCache.Get(ctx, a, b); ok {
				continue
			}
			missing = append(missing, pair{a: a, b: b})
		}
	}
	if len(missing) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchConcurrency)
	for _, p := range missing {
		p := p
		g.Go(func() error {
			val, _, err := s.simRepo.GetPair(dbctx.Context{Ctx: gctx}, p.a, p.b)
			if err != nil {
				s.log.Warn("similarity prefetch failed for pair", "error", err)
				return nil
			}
			s.simCache.Set(gctx, p.a, p.b, val)
			return nil
		})
	}
	_ = g.Wait()
}
