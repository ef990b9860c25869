package tags

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type TagAffinityRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.TagAffinity, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.TagAffinity, error)
	ReplaceForUser(dbc dbctx.Context, userID uuid.UUID, rows []*types.TagAffinity) error
}

type tagAffinityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagAffinityRepo(db *gorm.DB, baseLog *logger.Logger) TagAffinityRepo {
	return &tagAffinityRepo{db: db, log: baseLog.With("repo", "TagAffinityRepo")}
}

func (r *tagAffinityRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.TagAffinity, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.TagAffinity
	if userID == uuid.Nil {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("priority ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tagAffinityRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.TagAffinity, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.TagAffinity
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id, priority ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ReplaceForUser swaps a user's whole affinity list atomically. The
// priority sequence rule is validated by the profile service before rows
// reach this method.
func (r *tagAffinityRepo) ReplaceForUser(dbc dbctx.Context, userID uuid.UUID, rows []*types.TagAffinity) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	run := func(tx *gorm.DB) error {
		if err := tx.WithContext(dbc.Ctx).
			Where("user_id = ?", userID).
			Delete(&types.TagAffinity{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.WithContext(dbc.Ctx).Create(&rows).Error
	}
	if dbc.Tx != nil {
		return run(dbc.Tx)
	}
	return t.WithContext(dbc.Ctx).Transaction(run)
}
