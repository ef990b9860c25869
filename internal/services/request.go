package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	reqdom "github.com/gradlink/gradlink-backend/internal/domain/requests"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/requestdata"
)

// DefaultCooldown gates pair re-requests after a rejection or withdrawal.
const DefaultCooldown = 30 * 24 * time.Hour

// CreateBySupervisorResult surfaces the account-materialization side
// effect explicitly instead of hiding it.
type CreateBySupervisorResult struct {
	Request           *types.SupervisionRequest `json:"request"`
	CreatedNewAccount bool                      `json:"created_new_account"`
}

type RequestService interface {
	CreateByStudent(ctx context.Context, supervisorID uuid.UUID) (*types.SupervisionRequest, error)
	CreateBySupervisor(ctx context.Context, studentEmail, firstName, lastName string) (*CreateBySupervisorResult, error)
	Transition(ctx context.Context, requestID uuid.UUID, to types.RequestState) (*types.SupervisionRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*types.SupervisionRequest, error)
	List(ctx context.Context, filter repos.RequestFilter) ([]*types.SupervisionRequest, error)
	CountForUser(ctx context.Context, userID uuid.UUID, state types.RequestState) (int64, error)
}

type requestService struct {
	db       *gorm.DB
	log      *logger.Logger
	cooldown time.Duration

	userRepo       repos.UserRepo
	studentRepo    repos.StudentRepo
	supervisorRepo repos.SupervisorRepo
	requestRepo    repos.SupervisionRequestRepo

	identityCache *cache.IdentityCache
	now           func() time.Time
}

func NewRequestService(
	db *gorm.DB,
	log *logger.Logger,
	cooldown time.Duration,
	userRepo repos.UserRepo,
	studentRepo repos.StudentRepo,
	supervisorRepo repos.SupervisorRepo,
	requestRepo repos.SupervisionRequestRepo,
	identityCache *cache.IdentityCache,
) RequestService {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &requestService{
		db:             db,
		log:            log.With("service", "RequestService"),
		cooldown:       cooldown,
		userRepo:       userRepo,
		studentRepo:    studentRepo,
		supervisorRepo: supervisorRepo,
		requestRepo:    requestRepo,
		identityCache:  identityCache,
		now:            time.Now,
	}
}

func (s *requestService) actor(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, types.E(types.KindPermission, "request.actor", "no authenticated caller in context")
	}
	return rd, nil
}

func (s *requestService) CreateByStudent(ctx context.Context, supervisorID uuid.UUID) (*types.SupervisionRequest, error) {
	const op = "request.create_by_student"

	rd, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if rd.Role != types.RoleStudent || rd.ProfileID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "only students create supervision requests")
	}
	if supervisorID == uuid.Nil {
		return nil, types.E(types.KindValidation, op, "supervisor id required")
	}

	dbc := dbctx.Context{Ctx: ctx}

	supervisor, err := s.supervisorRepo.GetByID(dbc, supervisorID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if supervisor == nil {
		return nil, types.E(types.KindNotFound, op, "supervisor does not exist")
	}

	prior, err := s.requestRepo.LatestForPair(dbc, rd.ProfileID, supervisorID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if prior != nil {
		switch prior.State {
		case types.RequestPending, types.RequestAccepted:
			return nil, types.E(types.KindConflict, op, "an active request for this supervisor already exists")
		case types.RequestRejected, types.RequestWithdrawn:
			retryAt := prior.UpdatedAt.Add(s.cooldown)
			if remaining := retryAt.Sub(s.now()); remaining > 0 {
				return nil, types.CooldownError(op, remaining)
			}
		}
	}

	created, err := s.requestRepo.Create(dbc, &types.SupervisionRequest{
		StudentID:    rd.ProfileID,
		SupervisorID: supervisorID,
		State:        types.RequestPending,
	})
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}

	s.evictParties(ctx, created)
	s.log.Info("supervision request created",
		"request_id", created.ID.String(),
		"student_id", created.StudentID.String(),
		"supervisor_id", created.SupervisorID.String())
	return created, nil
}

func (s *requestService) CreateBySupervisor(ctx context.Context, studentEmail, firstName, lastName string) (*CreateBySupervisorResult, error) {
	const op = "request.create_by_supervisor"

	rd, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if rd.Role != types.RoleSupervisor || rd.ProfileID == uuid.Nil {
		return nil, types.E(types.KindPermission, op, "only supervisors accept students directly")
	}
	studentEmail = strings.TrimSpace(strings.ToLower(studentEmail))
	if studentEmail == "" {
		return nil, types.E(types.KindValidation, op, "student email required")
	}

	result := &CreateBySupervisorResult{}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		// Lock the supervisor row first: it is the serialization point
		// for all capacity accounting.
		supervisor, err := s.supervisorRepo.GetByIDForUpdate(dbc, rd.ProfileID)
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if supervisor == nil {
			return types.E(types.KindNotFound, op, "supervisor profile does not exist")
		}

		student, createdNew, err := s.resolveOrCreateStudent(dbc, op, rd.UserID, studentEmail, firstName, lastName)
		if err != nil {
			return err
		}
		result.CreatedNewAccount = createdNew

		hasAccepted, err := s.requestRepo.HasAcceptedForStudent(dbc, student.ID, uuid.Nil)
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if hasAccepted {
			return types.E(types.KindConflict, op, "student already holds an accepted request")
		}

		if supervisor.AvailableSpots <= 0 {
			return types.E(types.KindCapacity, op, "no available supervision spots")
		}

		created, err := s.requestRepo.Create(dbc, &types.SupervisionRequest{
			StudentID:    student.ID,
			SupervisorID: supervisor.ID,
			State:        types.RequestAccepted,
		})
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		result.Request = created

		if err := s.supervisorRepo.SetAvailableSpots(dbc, supervisor.ID, supervisor.AvailableSpots-1); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if _, err := s.requestRepo.WithdrawOtherPending(dbc, student.ID, created.ID); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.evictParties(ctx, result.Request)
	s.log.Info("supervision request accepted directly",
		"request_id", result.Request.ID.String(),
		"supervisor_id", result.Request.SupervisorID.String(),
		"created_new_account", result.CreatedNewAccount)
	return result, nil
}

// resolveOrCreateStudent finds the target student by contact address and
// materializes the identity plus student profile when absent. The bool
// reports whether a brand-new account came into being.
func (s *requestService) resolveOrCreateStudent(dbc dbctx.Context, op string, actorUserID uuid.UUID, email, firstName, lastName string) (*types.Student, bool, error) {
	existing, err := s.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, false, types.Wrap(types.KindInternal, op, err)
	}

	if existing != nil {
		if existing.ID == actorUserID {
			return nil, false, types.E(types.KindValidation, op, "cannot accept yourself as a student")
		}
		otherSupervisor, err := s.supervisorRepo.GetByUserID(dbc, existing.ID)
		if err != nil {
			return nil, false, types.Wrap(types.KindInternal, op, err)
		}
		if otherSupervisor != nil {
			return nil, false, types.E(types.KindValidation, op, "target identity is a supervisor")
		}
		student, err := s.studentRepo.GetByUserID(dbc, existing.ID)
		if err != nil {
			return nil, false, types.Wrap(types.KindInternal, op, err)
		}
		if student != nil {
			return student, false, nil
		}
		created, err := s.studentRepo.Create(dbc, []*types.Student{{ID: uuid.New(), UserID: existing.ID}})
		if err != nil {
			return nil, false, types.Wrap(types.KindInternal, op, err)
		}
		return created[0], false, nil
	}

	if firstName == "" {
		firstName = "New"
	}
	if lastName == "" {
		lastName = "Student"
	}
	newUsers, err := s.userRepo.Create(dbc, []*types.User{{
		ID:        uuid.New(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      types.RoleStudent,
	}})
	if err != nil {
		return nil, false, types.Wrap(types.KindInternal, op, err)
	}
	newStudents, err := s.studentRepo.Create(dbc, []*types.Student{{ID: uuid.New(), UserID: newUsers[0].ID}})
	if err != nil {
		return nil, false, types.Wrap(types.KindInternal, op, err)
	}
	return newStudents[0], true, nil
}

func (s *requestService) Transition(ctx context.Context, requestID uuid.UUID, to types.RequestState) (*types.SupervisionRequest, error) {
	const op = "request.transition"

	rd, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, types.E(types.KindValidation, op, "unknown target state")
	}

	dbc := dbctx.Context{Ctx: ctx}
	request, err := s.requestRepo.GetByID(dbc, requestID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if request == nil {
		return nil, types.E(types.KindNotFound, op, "request does not exist")
	}
	if err := s.authorize(rd, request, op); err != nil {
		return nil, err
	}
	if !reqdom.AllowedTransition(rd.Role, request.State, to) {
		return nil, types.E(types.KindIllegalTransition, op,
			"transition "+string(request.State)+" -> "+string(to)+" not permitted for role "+rd.Role)
	}

	entersAccepted := request.State != types.RequestAccepted && to == types.RequestAccepted
	leavesAccepted := request.State == types.RequestAccepted && to != types.RequestAccepted

	switch {
	case entersAccepted:
		err = s.accept(ctx, op, requestID, rd.Role)
	case leavesAccepted:
		err = s.release(ctx, op, requestID, to)
	default:
		// No capacity boundary crossed: single-statement update.
		err = s.requestRepo.UpdateState(dbc, requestID, to)
		if err != nil {
			err = types.Wrap(types.KindInternal, op, err)
		}
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.requestRepo.GetByID(dbc, requestID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	s.evictParties(ctx, updated)
	s.log.Info("request transitioned",
		"request_id", requestID.String(), "from", string(request.State), "to", string(to))
	return updated, nil
}

// accept crosses into ACCEPTED: capacity is re-validated under the
// supervisor row lock so two concurrent accepts on the last spot cannot
// both succeed, and competing PENDING offers of the student are
// withdrawn in the same transaction.
func (s *requestService) accept(ctx context.Context, op string, requestID uuid.UUID, role string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		request, err := s.requestRepo.GetByIDForUpdate(dbc, requestID)
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if request == nil {
			return types.E(types.KindNotFound, op, "request does not exist")
		}
		if !reqdom.AllowedTransition(role, request.State, types.RequestAccepted) {
			return types.E(types.KindIllegalTransition, op, "request state changed concurrently")
		}

		supervisor, err := s.supervisorRepo.GetByIDForUpdate(dbc, request.SupervisorID)
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if supervisor == nil {
			return types.E(types.KindNotFound, op, "supervisor does not exist")
		}
		if supervisor.AvailableSpots <= 0 {
			return types.E(types.KindCapacity, op, "no available supervision spots")
		}

		hasAccepted, err := s.requestRepo.HasAcceptedForStudent(dbc, request.StudentID, request.ID)
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if hasAccepted {
			return types.E(types.KindConflict, op, "student already holds an accepted request")
		}

		if err := s.requestRepo.UpdateState(dbc, request.ID, types.RequestAccepted); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if err := s.supervisorRepo.SetAvailableSpots(dbc, supervisor.ID, supervisor.AvailableSpots-1); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if _, err := s.requestRepo.WithdrawOtherPending(dbc, request.StudentID, request.ID); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		return nil
	})
}

// release leaves ACCEPTED: the freed spot returns clamped to total.
func (s *requestService) release(ctx context.Context, op string, requestID uuid.UUID, to types.RequestState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		request, err := s.requestRepo.GetByIDForUpdate(dbc, requestID)
		if err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if request == nil || request.State != types.RequestAccepted {
			return types.E(types.KindIllegalTransition, op, "request state changed concurrently")
		}
		if err := s.requestRepo.UpdateState(dbc, request.ID, to); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		if err := s.supervisorRepo.ReleaseSpot(dbc, request.SupervisorID); err != nil {
			return types.Wrap(types.KindInternal, op, err)
		}
		return nil
	})
}

func (s *requestService) Get(ctx context.Context, requestID uuid.UUID) (*types.SupervisionRequest, error) {
	const op = "request.get"

	rd, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.requestRepo.GetByID(dbctx.Context{Ctx: ctx}, requestID)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	if request == nil {
		return nil, types.E(types.KindNotFound, op, "request does not exist")
	}
	if err := s.authorize(rd, request, op); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *requestService) List(ctx context.Context, filter repos.RequestFilter) ([]*types.SupervisionRequest, error) {
	const op = "request.list"

	rd, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	// Non-admin callers only ever see their own side of the relation.
	switch rd.Role {
	case types.RoleStudent:
		profileID := rd.ProfileID
		filter.StudentID = &profileID
	case types.RoleSupervisor:
		profileID := rd.ProfileID
		filter.SupervisorID = &profileID
	case types.RoleAdmin:
	default:
		return nil, types.E(types.KindPermission, op, "unknown caller role")
	}

	results, err := s.requestRepo.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, types.Wrap(types.KindInternal, op, err)
	}
	return results, nil
}

func (s *requestService) CountForUser(ctx context.Context, userID uuid.UUID, state types.RequestState) (int64, error) {
	const op = "request.count_for_user"

	if _, err := s.actor(ctx); err != nil {
		return 0, err
	}
	if state != "" && !state.Valid() {
		return 0, types.E(types.KindValidation, op, "unknown request state")
	}

	dbc := dbctx.Context{Ctx: ctx}
	found, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return 0, types.Wrap(types.KindInternal, op, err)
	}
	if len(found) == 0 {
		return 0, types.E(types.KindNotFound, op, "user does not exist")
	}

	switch found[0].Role {
	case types.RoleAdmin:
		// Admins have no role-specific side of the relation to count.
		return 0, types.E(types.KindValidation, op, "no role-specific request count for admin identities")
	case types.RoleStudent:
		student, err := s.studentRepo.GetByUserID(dbc, userID)
		if err != nil {
			return 0, types.Wrap(types.KindInternal, op, err)
		}
		if student == nil {
			return 0, types.E(types.KindNotFound, op, "student profile does not exist")
		}
		return s.countOrInternal(dbc, op, func() (int64, error) {
			return s.requestRepo.CountByStudent(dbc, student.ID, state)
		})
	case types.RoleSupervisor:
		supervisor, err := s.supervisorRepo.GetByUserID(dbc, userID)
		if err != nil {
			return 0, types.Wrap(types.KindInternal, op, err)
		}
		if supervisor == nil {
			return 0, types.E(types.KindNotFound, op, "supervisor profile does not exist")
		}
		return s.countOrInternal(dbc, op, func() (int64, error) {
			return s.requestRepo.CountBySupervisor(dbc, supervisor.ID, state)
		})
	default:
		return 0, types.E(types.KindValidation, op, "user has no countable role")
	}
}

func (s *requestService) countOrInternal(dbc dbctx.Context, op string, count func() (int64, error)) (int64, error) {
	n, err := count()
	if err != nil {
		return 0, types.Wrap(types.KindInternal, op, err)
	}
	return n, nil
}

func (s *requestService) authorize(rd *requestdata.RequestData, request *types.SupervisionRequest, op string) error {
	switch rd.Role {
	case types.RoleAdmin:
		return nil
	case types.RoleStudent:
		if request.StudentID == rd.ProfileID {
			return nil
		}
	case types.RoleSupervisor:
		if request.SupervisorID == rd.ProfileID {
			return nil
		}
	}
	return types.E(types.KindPermission, op, "caller is not a party to this request")
}

// evictParties drops both parties' identity projections after a ledger
// mutation so the next read rebuilds them against current request state.
func (s *requestService) evictParties(ctx context.Context, request *types.SupervisionRequest) {
	if request == nil || s.identityCache == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	if student, err := s.studentRepo.GetByID(dbc, request.StudentID); err == nil && student != nil {
		s.identityCache.Evict(ctx, student.UserID)
	}
	if supervisor, err := s.supervisorRepo.GetByID(dbc, request.SupervisorID); err == nil && supervisor != nil {
		s.identityCache.Evict(ctx, supervisor.UserID)
	}
}
