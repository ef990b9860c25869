package requests

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

// Filter narrows request listings; nil fields match everything.
type Filter struct {
	StudentID    *uuid.UUID
	SupervisorID *uuid.UUID
	States       []types.RequestState
}

type SupervisionRequestRepo interface {
	Create(dbc dbctx.Context, row *types.SupervisionRequest) (*types.SupervisionRequest, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SupervisionRequest, error)
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.SupervisionRequest, error)

	// LatestForPair returns the most recently updated request for a
	// (student, supervisor) pair; creation gating reads it.
	LatestForPair(dbc dbctx.Context, studentID, supervisorID uuid.UUID) (*types.SupervisionRequest, error)

	List(dbc dbctx.Context, filter Filter) ([]*types.SupervisionRequest, error)
	CountByStudent(dbc dbctx.Context, studentID uuid.UUID, state types.RequestState) (int64, error)
	CountBySupervisor(dbc dbctx.Context, supervisorID uuid.UUID, state types.RequestState) (int64, error)

	HasAcceptedForStudent(dbc dbctx.Context, studentID uuid.UUID, excludeRequestID uuid.UUID) (bool, error)
	ActiveSupervisorIDs(dbc dbctx.Context, studentID uuid.UUID) ([]uuid.UUID, error)

	UpdateState(dbc dbctx.Context, id uuid.UUID, state types.RequestState) error
	WithdrawOtherPending(dbc dbctx.Context, studentID uuid.UUID, excludeRequestID uuid.UUID) (int64, error)
}

type supervisionRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupervisionRequestRepo(db *gorm.DB, baseLog *logger.Logger) SupervisionRequestRepo {
	return &supervisionRequestRepo{db: db, log: baseLog.With("repo", "SupervisionRequestRepo")}
}

func (r *supervisionRequestRepo) Create(dbc dbctx.Context, row *types.SupervisionRequest) (*types.SupervisionRequest, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *supervisionRequestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SupervisionRequest, error) {
	return r.getByID(dbc, id, false)
}

func (r *supervisionRequestRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.SupervisionRequest, error) {
	return r.getByID(dbc, id, true)
}

func (r *supervisionRequestRepo) getByID(dbc dbctx.Context, id uuid.UUID, forUpdate bool) (*types.SupervisionRequest, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.SupervisionRequest
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *supervisionRequestRepo) LatestForPair(dbc dbctx.Context, studentID, supervisorID uuid.UUID) (*types.SupervisionRequest, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if studentID == uuid.Nil || supervisorID == uuid.Nil {
		return nil, nil
	}
	var row types.SupervisionRequest
	if err := t.WithContext(dbc.Ctx).
		Where("student_id = ? AND supervisor_id = ?", studentID, supervisorID).
		Order("updated_at DESC").
		Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *supervisionRequestRepo) List(dbc dbctx.Context, filter Filter) ([]*types.SupervisionRequest, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.SupervisionRequest{})
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.SupervisorID != nil {
		q = q.Where("supervisor_id = ?", *filter.SupervisorID)
	}
	if len(filter.States) > 0 {
		q = q.Where("state IN ?", filter.States)
	}
	var results []*types.SupervisionRequest
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *supervisionRequestRepo) CountByStudent(dbc dbctx.Context, studentID uuid.UUID, state types.RequestState) (int64, error) {
	return r.count(dbc, "student_id", studentID, state)
}

func (r *supervisionRequestRepo) CountBySupervisor(dbc dbctx.Context, supervisorID uuid.UUID, state types.RequestState) (int64, error) {
	return r.count(dbc, "supervisor_id", supervisorID, state)
}

func (r *supervisionRequestRepo) count(dbc dbctx.Context, column string, id uuid.UUID, state types.RequestState) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	q := t.WithContext(dbc.Ctx).
		Model(&types.SupervisionRequest{}).
		Where(column+" = ?", id)
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *supervisionRequestRepo) HasAcceptedForStudent(dbc dbctx.Context, studentID uuid.UUID, excludeRequestID uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	q := t.WithContext(dbc.Ctx).
		Model(&types.SupervisionRequest{}).
		Where("student_id = ? AND state = ?", studentID, types.RequestAccepted)
	if excludeRequestID != uuid.Nil {
		q = q.Where("id <> ?", excludeRequestID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *supervisionRequestRepo) ActiveSupervisorIDs(dbc dbctx.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if studentID == uuid.Nil {
		return ids, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.SupervisionRequest{}).
		Where("student_id = ? AND state IN ?", studentID,
			[]types.RequestState{types.RequestPending, types.RequestAccepted}).
		Pluck("supervisor_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *supervisionRequestRepo) UpdateState(dbc dbctx.Context, id uuid.UUID, state types.RequestState) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.SupervisionRequest{}).
		Where("id = ?", id).
		Update("state", state).Error
}

// WithdrawOtherPending moves every other PENDING request of the student
// to WITHDRAWN. Runs inside the accept transaction so the auto-withdraw
// lands atomically with the acceptance.
func (r *supervisionRequestRepo) WithdrawOtherPending(dbc dbctx.Context, studentID uuid.UUID, excludeRequestID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.SupervisionRequest{}).
		Where("student_id = ? AND state = ? AND id <> ?", studentID, types.RequestPending, excludeRequestID).
		Update("state", types.RequestWithdrawn)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
