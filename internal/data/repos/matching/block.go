package matching

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type BlockRepo interface {
	Create(dbc dbctx.Context, studentID, supervisorID uuid.UUID) error
	Delete(dbc dbctx.Context, studentID, supervisorID uuid.UUID) error
	ListSupervisorIDs(dbc dbctx.Context, studentID uuid.UUID) ([]uuid.UUID, error)
}

type blockRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBlockRepo(db *gorm.DB, baseLog *logger.Logger) BlockRepo {
	return &blockRepo{db: db, log: baseLog.With("repo", "BlockRepo")}
}

func (r *blockRepo) Create(dbc dbctx.Context, studentID, supervisorID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if studentID == uuid.Nil || supervisorID == uuid.Nil {
		return nil
	}
	row := types.Block{ID: uuid.New(), StudentID: studentID, SupervisorID: supervisorID}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *blockRepo) Delete(dbc dbctx.Context, studentID, supervisorID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("student_id = ? AND supervisor_id = ?", studentID, supervisorID).
		Delete(&types.Block{}).Error
}

func (r *blockRepo) ListSupervisorIDs(dbc dbctx.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var ids []uuid.UUID
	if studentID == uuid.Nil {
		return ids, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Block{}).
		Where("student_id = ?", studentID).
		Pluck("supervisor_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
