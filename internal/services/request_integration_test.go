package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gradlink/gradlink-backend/internal/data/repos"
	"github.com/gradlink/gradlink-backend/internal/data/repos/testutil"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// These tests exercise the capacity transactions against a real
// database; they skip without TEST_POSTGRES_DSN. Rows are written
// outside any wrapping transaction so concurrent accepts contend on
// real row locks, and cleaned up per test.

type ledgerHarness struct {
	db  *gorm.DB
	svc RequestService

	students    repos.StudentRepo
	supervisors repos.SupervisorRepo
	requests    repos.SupervisionRequestRepo
}

func newLedgerHarness(t *testing.T) *ledgerHarness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	studentRepo := repos.NewStudentRepo(db, log)
	supervisorRepo := repos.NewSupervisorRepo(db, log)
	requestRepo := repos.NewSupervisionRequestRepo(db, log)

	return &ledgerHarness{
		db:          db,
		svc:         NewRequestService(db, log, DefaultCooldown, userRepo, studentRepo, supervisorRepo, requestRepo, nil),
		students:    studentRepo,
		supervisors: supervisorRepo,
		requests:    requestRepo,
	}
}

func (h *ledgerHarness) seedStudent(t *testing.T) *types.Student {
	t.Helper()
	student := testutil.SeedStudent(t, context.Background(), h.db, uniqueEmail("student"))
	t.Cleanup(func() { h.cleanupStudent(student) })
	return student
}

func (h *ledgerHarness) seedSupervisor(t *testing.T, total, available int) *types.Supervisor {
	t.Helper()
	sup := testutil.SeedSupervisor(t, context.Background(), h.db, uniqueEmail("supervisor"), total, available)
	t.Cleanup(func() { h.cleanupSupervisor(sup) })
	return sup
}

func (h *ledgerHarness) cleanupStudent(student *types.Student) {
	h.db.Where("student_id = ?", student.ID).Delete(&types.SupervisionRequest{})
	h.db.Delete(&types.Student{}, "id = ?", student.ID)
	h.db.Delete(&types.User{}, "id = ?", student.UserID)
}

func (h *ledgerHarness) cleanupSupervisor(sup *types.Supervisor) {
	h.db.Where("supervisor_id = ?", sup.ID).Delete(&types.SupervisionRequest{})
	h.db.Delete(&types.Supervisor{}, "id = ?", sup.ID)
	h.db.Delete(&types.User{}, "id = ?", sup.UserID)
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.edu", prefix, uuid.New().String()[:8])
}

func supervisorActor(sup *types.Supervisor) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: sup.UserID, Role: types.RoleSupervisor, ProfileID: sup.ID,
	})
}

func studentActor(student *types.Student) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: student.UserID, Role: types.RoleStudent, ProfileID: student.ID,
	})
}

func TestAcceptConcurrencyOnLastSpot(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	sup := h.seedSupervisor(t, 1, 1)
	alice := h.seedStudent(t)
	bob := h.seedStudent(t)
	reqAlice := testutil.SeedRequest(t, ctx, h.db, alice.ID, sup.ID, types.RequestPending)
	reqBob := testutil.SeedRequest(t, ctx, h.db, bob.ID, sup.ID, types.RequestPending)

	actor := supervisorActor(sup)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = h.svc.Transition(actor, reqAlice.ID, types.RequestAccepted)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = h.svc.Transition(actor, reqBob.ID, types.RequestAccepted)
	}()
	wg.Wait()

	var accepted, capacity int
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case types.IsKind(err, types.KindCapacity):
			capacity++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 1 || capacity != 1 {
		t.Fatalf("got %d accepts and %d capacity rejections, want exactly 1 of each (errs=%v)", accepted, capacity, errs)
	}

	fresh, err := h.supervisors.GetByID(dbCtx(ctx), sup.ID)
	if err != nil {
		t.Fatalf("reload supervisor: %v", err)
	}
	if fresh.AvailableSpots != 0 {
		t.Fatalf("got %d available spots, want 0", fresh.AvailableSpots)
	}
}

func TestAcceptWithdrawsCompetingOffers(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	supA := h.seedSupervisor(t, 2, 2)
	supB := h.seedSupervisor(t, 2, 2)
	student := h.seedStudent(t)
	reqA := testutil.SeedRequest(t, ctx, h.db, student.ID, supA.ID, types.RequestPending)
	reqB := testutil.SeedRequest(t, ctx, h.db, student.ID, supB.ID, types.RequestPending)

	if _, err := h.svc.Transition(supervisorActor(supA), reqA.ID, types.RequestAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	other, err := h.requests.GetByID(dbCtx(ctx), reqB.ID)
	if err != nil {
		t.Fatalf("reload competing request: %v", err)
	}
	if other.State != types.RequestWithdrawn {
		t.Fatalf("competing offer state %s, want %s", other.State, types.RequestWithdrawn)
	}
}

func TestAcceptEnforcesSingleAcceptance(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	supA := h.seedSupervisor(t, 2, 2)
	supB := h.seedSupervisor(t, 2, 2)
	student := h.seedStudent(t)
	testutil.SeedRequest(t, ctx, h.db, student.ID, supA.ID, types.RequestAccepted)
	reqB := testutil.SeedRequest(t, ctx, h.db, student.ID, supB.ID, types.RequestPending)

	_, err := h.svc.Transition(supervisorActor(supB), reqB.ID, types.RequestAccepted)
	if !types.IsKind(err, types.KindConflict) {
		t.Fatalf("got %v, want conflict error", err)
	}
}

func TestWithdrawFromAcceptedReleasesSpot(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	sup := h.seedSupervisor(t, 3, 1)
	student := h.seedStudent(t)
	req := testutil.SeedRequest(t, ctx, h.db, student.ID, sup.ID, types.RequestAccepted)

	updated, err := h.svc.Transition(studentActor(student), req.ID, types.RequestWithdrawn)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if updated.State != types.RequestWithdrawn {
		t.Fatalf("got state %s, want %s", updated.State, types.RequestWithdrawn)
	}

	fresh, err := h.supervisors.GetByID(dbCtx(ctx), sup.ID)
	if err != nil {
		t.Fatalf("reload supervisor: %v", err)
	}
	if fresh.AvailableSpots != 2 {
		t.Fatalf("got %d available spots, want 2", fresh.AvailableSpots)
	}
}

func TestReleaseClampsToTotalSpots(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	// Available already equals total: the freed spot must not exceed it.
	sup := h.seedSupervisor(t, 1, 1)
	student := h.seedStudent(t)
	req := testutil.SeedRequest(t, ctx, h.db, student.ID, sup.ID, types.RequestAccepted)

	if _, err := h.svc.Transition(studentActor(student), req.ID, types.RequestWithdrawn); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	fresh, err := h.supervisors.GetByID(dbCtx(ctx), sup.ID)
	if err != nil {
		t.Fatalf("reload supervisor: %v", err)
	}
	if fresh.AvailableSpots != 1 {
		t.Fatalf("got %d available spots, want clamp at 1", fresh.AvailableSpots)
	}
}

func TestCreateBySupervisorMaterializesAccount(t *testing.T) {
	h := newLedgerHarness(t)

	sup := h.seedSupervisor(t, 2, 2)
	email := uniqueEmail("incoming")
	t.Cleanup(func() {
		var u types.User
		if err := h.db.Where("email = ?", email).First(&u).Error; err == nil {
			h.db.Where("user_id = ?", u.ID).Delete(&types.Student{})
			h.db.Delete(&types.User{}, "id = ?", u.ID)
		}
	})

	result, err := h.svc.CreateBySupervisor(supervisorActor(sup), email, "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("CreateBySupervisor: %v", err)
	}
	if !result.CreatedNewAccount {
		t.Fatal("expected a new account to be reported")
	}
	if result.Request.State != types.RequestAccepted {
		t.Fatalf("got state %s, want %s", result.Request.State, types.RequestAccepted)
	}
	t.Cleanup(func() {
		h.db.Delete(&types.SupervisionRequest{}, "id = ?", result.Request.ID)
		h.db.Delete(&types.Student{}, "id = ?", result.Request.StudentID)
	})

	fresh, err := h.supervisors.GetByID(dbCtx(context.Background()), sup.ID)
	if err != nil {
		t.Fatalf("reload supervisor: %v", err)
	}
	if fresh.AvailableSpots != 1 {
		t.Fatalf("got %d available spots, want 1", fresh.AvailableSpots)
	}

	// Second direct accept for the same student conflicts on the
	// single-acceptance rule, not on capacity.
	_, err = h.svc.CreateBySupervisor(supervisorActor(sup), email, "Ada", "Lovelace")
	if !types.IsKind(err, types.KindConflict) {
		t.Fatalf("got %v, want conflict error", err)
	}
}

func TestCreateBySupervisorAtZeroCapacity(t *testing.T) {
	h := newLedgerHarness(t)

	sup := h.seedSupervisor(t, 1, 0)
	email := uniqueEmail("incoming")
	t.Cleanup(func() {
		var u types.User
		if err := h.db.Where("email = ?", email).First(&u).Error; err == nil {
			h.db.Where("user_id = ?", u.ID).Delete(&types.Student{})
			h.db.Delete(&types.User{}, "id = ?", u.ID)
		}
	})

	_, err := h.svc.CreateBySupervisor(supervisorActor(sup), email, "", "")
	if !types.IsKind(err, types.KindCapacity) {
		t.Fatalf("got %v, want capacity error", err)
	}
}

func dbCtx(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}
