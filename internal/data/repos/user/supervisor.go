package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type SupervisorRepo interface {
	Create(dbc dbctx.Context, rows []*types.Supervisor) ([]*types.Supervisor, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Supervisor, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Supervisor, error)
	ListAvailable(dbc dbctx.Context) ([]*types.Supervisor, error)

	// GetByIDForUpdate takes the row lock that serializes capacity
	// accounting; callers must hold a transaction in dbc.Tx.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Supervisor, error)
	SetAvailableSpots(dbc dbctx.Context, id uuid.UUID, spots int) error
	ReleaseSpot(dbc dbctx.Context, id uuid.UUID) error
}

type supervisorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupervisorRepo(db *gorm.DB, baseLog *logger.Logger) SupervisorRepo {
	return &supervisorRepo{db: db, log: baseLog.With("repo", "SupervisorRepo")}
}

func (r *supervisorRepo) Create(dbc dbctx.Context, rows []*types.Supervisor) ([]*types.Supervisor, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Supervisor{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *supervisorRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Supervisor, error) {
	return r.getByID(dbc, id, false)
}

func (r *supervisorRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Supervisor, error) {
	return r.getByID(dbc, id, true)
}

func (r *supervisorRepo) getByID(dbc dbctx.Context, id uuid.UUID, forUpdate bool) (*types.Supervisor, error) {
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
	var row types.Supervisor
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *supervisorRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Supervisor, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Supervisor
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *supervisorRepo) ListAvailable(dbc dbctx.Context) ([]*types.Supervisor, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Supervisor
	if err := t.WithContext(dbc.Ctx).
		Where("available_spots > 0").
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *supervisorRepo) SetAvailableSpots(dbc dbctx.Context, id uuid.UUID, spots int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Supervisor{}).
		Where("id = ?", id).
		Update("available_spots", spots).Error
}

// ReleaseSpot increments available_spots clamped to total_spots in a
// single statement, so it needs no surrounding transaction.
func (r *supervisorRepo) ReleaseSpot(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Supervisor{}).
		Where("id = ?", id).
		Update("available_spots", gorm.Expr("LEAST(total_spots, available_spots + 1)")).Error
}
