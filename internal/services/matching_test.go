package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// Narrow fakes: embed the interface and override only what the
// orchestrator touches. Anything else panics, which is what we want.

type fakeSupervisorRepo struct {
	repos.SupervisorRepo
	available []*types.Supervisor
}

func (f *fakeSupervisorRepo) ListAvailable(dbctx.Context) ([]*types.Supervisor, error) {
	out := make([]*types.Supervisor, len(f.available))
	copy(out, f.available)
	return out, nil
}

type fakeUserRepo struct {
	repos.UserRepo
	users map[uuid.UUID]*types.User
}

func (f *fakeUserRepo) GetByIDs(_ dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeAffinityRepo struct {
	repos.TagAffinityRepo
	byUser map[uuid.UUID][]*types.TagAffinity
}

func (f *fakeAffinityRepo) GetByUserID(_ dbctx.Context, userID uuid.UUID) ([]*types.TagAffinity, error) {
	return f.byUser[userID], nil
}

func (f *fakeAffinityRepo) GetByUserIDs(_ dbctx.Context, userIDs []uuid.UUID) ([]*types.TagAffinity, error) {
	var out []*types.TagAffinity
	for _, id := range userIDs {
		out = append(out, f.byUser[id]...)
	}
	return out, nil
}

type fakeBlockRepo struct {
	repos.BlockRepo
	blocked []uuid.UUID
}

func (f *fakeBlockRepo) ListSupervisorIDs(dbctx.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.blocked, nil
}

type fakeActiveRequestRepo struct {
	repos.SupervisionRequestRepo
	active []uuid.UUID
}

func (f *fakeActiveRequestRepo) ActiveSupervisorIDs(dbctx.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.active, nil
}

type matchFixture struct {
	studentUserID    uuid.UUID
	studentProfileID uuid.UUID
	supervisors      *fakeSupervisorRepo
	users            *fakeUserRepo
	affinities       *fakeAffinityRepo
	blocks           *fakeBlockRepo
	requests         *fakeActiveRequestRepo
	simRepo          *fakeSimilarityRepo
}

func newMatchFixture() *matchFixture {
	return &matchFixture{
		studentUserID:    uuid.New(),
		studentProfileID: uuid.New(),
		supervisors:      &fakeSupervisorRepo{},
		users:            &fakeUserRepo{users: map[uuid.UUID]*types.User{}},
		affinities:       &fakeAffinityRepo{byUser: map[uuid.UUID][]*types.TagAffinity{}},
		blocks:           &fakeBlockRepo{},
		requests:         &fakeActiveRequestRepo{},
		simRepo:          newFakeSimilarityRepo(),
	}
}

func (fx *matchFixture) addSupervisor(spots int, tags ...uuid.UUID) *types.Supervisor {
	sup := &types.Supervisor{ID: uuid.New(), UserID: uuid.New(), TotalSpots: spots, AvailableSpots: spots}
	fx.supervisors.available = append(fx.supervisors.available, sup)
	fx.users.users[sup.UserID] = &types.User{
		ID: sup.UserID, Role: types.RoleSupervisor,
		FirstName: "Sup", LastName: sup.UserID.String()[:8],
	}
	for i, tag := range tags {
		fx.affinities.byUser[sup.UserID] = append(fx.affinities.byUser[sup.UserID],
			affinity(sup.UserID, tag, i+1))
	}
	return sup
}

func (fx *matchFixture) service(t *testing.T) MatchingService {
	t.Helper()
	log := testLogger(t)
	simCache := cache.NewSimilarityCache(newMemStore(), log, time.Hour)
	scorer := NewCompatibilityService(simCache, fx.simRepo, log)
	return NewMatchingService(scorer, fx.supervisors, fx.users, fx.affinities, fx.blocks, fx.requests, log)
}

func (fx *matchFixture) ctx() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:    fx.studentUserID,
		Role:      types.RoleStudent,
		ProfileID: fx.studentProfileID,
	})
}

func TestMatchRanksByScoreDescending(t *testing.T) {
	fx := newMatchFixture()

	tagML, tagWeb, tagBio := uuid.New(), uuid.New(), uuid.New()
	fx.simRepo.put(tagML, tagBio, 0.3)
	fx.affinities.byUser[fx.studentUserID] = []*types.TagAffinity{
		affinity(fx.studentUserID, tagML, 1),
	}

	exact := fx.addSupervisor(2, tagML)
	partial := fx.addSupervisor(2, tagBio)
	unrelated := fx.addSupervisor(2, tagWeb)

	ranked, err := fx.service(t).Match(fx.ctx())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("got %d candidates, want 3", len(ranked))
	}
	wantOrder := []uuid.UUID{exact.ID, partial.ID, unrelated.ID}
	for i, want := range wantOrder {
		if ranked[i].SupervisorID != want {
			t.Fatalf("position %d: got %s, want %s", i, ranked[i].SupervisorID, want)
		}
	}
	if ranked[0].Score != 1.0 || ranked[1].Score != 0.3 || ranked[2].Score != 0.0 {
		t.Fatalf("unexpected scores: %v %v %v", ranked[0].Score, ranked[1].Score, ranked[2].Score)
	}
}

func TestMatchExcludesBlockedAndActive(t *testing.T) {
	fx := newMatchFixture()
	tag := uuid.New()
	fx.affinities.byUser[fx.studentUserID] = []*types.TagAffinity{affinity(fx.studentUserID, tag, 1)}

	keep := fx.addSupervisor(1, tag)
	blocked := fx.addSupervisor(1, tag)
	engaged := fx.addSupervisor(1, tag)
	fx.blocks.blocked = []uuid.UUID{blocked.ID}
	fx.requests.active = []uuid.UUID{engaged.ID}

	ranked, err := fx.service(t).Match(fx.ctx())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d candidates, want 1", len(ranked))
	}
	if ranked[0].SupervisorID != keep.ID {
		t.Fatalf("got %s, want %s", ranked[0].SupervisorID, keep.ID)
	}
}

func TestMatchStableOrderOnTies(t *testing.T) {
	fx := newMatchFixture()
	// No seeker affinities: every candidate scores 0 and listing order
	// must survive the sort.
	first := fx.addSupervisor(1)
	second := fx.addSupervisor(1)
	third := fx.addSupervisor(1)

	ranked, err := fx.service(t).Match(fx.ctx())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	wantOrder := []uuid.UUID{first.ID, second.ID, third.ID}
	for i, want := range wantOrder {
		if ranked[i].SupervisorID != want {
			t.Fatalf("tie order broken at %d: got %s, want %s", i, ranked[i].SupervisorID, want)
		}
	}
}

func TestMatchRequiresStudentCaller(t *testing.T) {
	fx := newMatchFixture()
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: uuid.New(), Role: types.RoleSupervisor, ProfileID: uuid.New(),
	})
	_, err := fx.service(t).Match(ctx)
	if !types.IsKind(err, types.KindPermission) {
		t.Fatalf("got %v, want permission error", err)
	}
}
