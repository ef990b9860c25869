package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// RankedCandidate is one supervisor in a student's match list.
type RankedCandidate struct {
	SupervisorID   uuid.UUID `json:"supervisor_id"`
	UserID         uuid.UUID `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	AvailableSpots int       `json:"available_spots"`
	Score          float64   `json:"score"`
}

type MatchingService interface {
	Match(ctx context.Context) ([]*RankedCandidate, error)
}

type matchingService struct {
	log *logger.Logger

	compatibility  CompatibilityService
	supervisorRepo repos.SupervisorRepo
	userRepo       repos.UserRepo
	affinityRepo   repos.TagAffinityRepo
	blockRepo      repos.BlockRepo
	requestRepo    repos.SupervisionRequestRepo
}

func NewMatchingService(
	compatibility CompatibilityService,
	supervisorRepo repos.SupervisorRepo,
	userRepo repos.UserRepo,
	affinityRepo repos.TagAffinityRepo,
	blockRepo repos.BlockRepo,
	requestRepo repos.SupervisionRequestRepo,
	log *logger.Logger,
) MatchingService {
	return &matchingService{
		log:            log.With("service", "MatchingService"),
		compatibility:  compatibility,
		supervisorRepo: supervisorRepo,
		userRepo:       userRepo,
		affinityRepo:   affinityRepo,
		blockRepo:      blockRepo,
		requestRepo:    requestRepo,
	}
}

// Match ranks supervisors with open spots for the calling student,
// excluding blocked supervisors and ones the student already has an
// active request with. Ties keep the candidate listing order, which is
// profile creation order.
func (s *matchingService) Match(ctx context.Context) ([]*RankedCandidate, error) {
	const op = "matching.match"

	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "no authenticated caller in context")
	}
	if rd.Role != types.RoleStudent || rd.ProfileID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "only students request match lists")
	}

	dbc := dbctx.Context{Ctx: ctx}

	available, err := s.supervisorRepo.ListAvailable(dbc)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if len(available) == 0 {
		return []*RankedCandidate{}, nil
	}

	excluded, err := s.excludedSupervisors(dbc, rd.ProfileID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}

	candidates := available[:0]
	for _, sup := range available {
		if _, skip := excluded[sup.ID]; !skip {
			candidates = append(candidates, sup)
		}
	}
	if len(candidates) == 0 {
		return []*RankedCandidate{}, nil
	}

	seekerAffinities, err := s.affinityRepo.GetByUserID(dbc, rd.UserID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}

	userIDs := make([]uuid.UUID, 0, len(candidates))
	for _, sup := range candidates {
		userIDs = append(userIDs, sup.UserID)
	}
	candidateAffinities, err := s.affinityRepo.GetByUserIDs(dbc, userIDs)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	byUser := make(map[uuid.UUID][]*types.TagAffinity, len(candidates))
	for _, aff := range candidateAffinities {
		byUser[aff.UserID] = append(byUser[aff.UserID], aff)
	}

	users, err := s.userRepo.GetByIDs(dbc, userIDs)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	names := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		names[u.ID] = u
	}

	ranked := make([]*RankedCandidate, 0, len(candidates))
	for _, sup := range candidates {
		score, err := s.compatibility.Score(ctx, seekerAffinities, byUser[sup.UserID])
		if err != nil {
			return nil, types.Wrap(types.KindInternal, op, err)
		}
		rc := &RankedCandidate{
			SupervisorID:   sup.ID,
			UserID:         sup.UserID,
			AvailableSpots: sup.AvailableSpots,
			Score:          score,
		}
		if u := names[sup.UserID]; u != nil {
			rc.FirstName = u.FirstName
			rc.LastName = u.LastName
		}
		ranked = append(ranked, rc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	s.log.Debug("match list computed",
		"student_id", rd.ProfileID.String(), "candidates", len(ranked))
	return ranked, nil
}

func (s *matchingService) excludedSupervisors(dbc dbctx.Context, studentID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	blocked, err := s.blockRepo.ListSupervisorIDs(dbc, studentID)
	if err != nil {
		return nil, err
	}
	active, err := s.requestRepo.ActiveSupervisorIDs(dbc, studentID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[uuid.UUID]struct{}, len(blocked)+len(active))
	for _, id := range blocked {
		excluded[id] = struct{}{}
	}
	for _, id := range active {
		excluded[id] = struct{}{}
	}
	return excluded, nil
}
