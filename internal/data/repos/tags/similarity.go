package tags

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/gradlink/gradlink-backend/internal/domain"
	matchdom "github.com/gradlink/gradlink-backend/internal/domain/matching"
	"github.com/gradlink/gradlink-backend/internal/platform/dbctx"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

// SimilarTag is one neighbor of a tag in the similarity graph.
type SimilarTag struct {
	TagID      uuid.UUID
	Similarity float64
}

type TagSimilarityRepo interface {
	// GetPair returns the stored similarity for an unordered pair, or
	// (0, false, nil) when no edge exists. Argument order is irrelevant.
	GetPair(dbc dbctx.Context, a, b uuid.UUID) (float64, bool, error)
	Upsert(dbc dbctx.Context, a, b uuid.UUID, similarity float64) error
	FindSimilarByTagID(dbc dbctx.Context, tagID uuid.UUID, minSimilarity float64) ([]SimilarTag, error)
}

type tagSimilarityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagSimilarityRepo(db *gorm.DB, baseLog *logger.Logger) TagSimilarityRepo {
	return &tagSimilarityRepo{db: db, log: baseLog.With("repo", "TagSimilarityRepo")}
}

func (r *tagSimilarityRepo) GetPair(dbc dbctx.Context, a, b uuid.UUID) (float64, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if a == uuid.Nil || b == uuid.Nil {
		return 0, false, nil
	}
	if a == b {
		return 1.0, true, nil
	}
	lo, hi := matchdom.CanonicalPair(a, b)
	var row types.TagSimilarity
	if err := t.WithContext(dbc.Ctx).
		Where("tag_a = ? AND tag_b = ?", lo, hi).
		Limit(1).Find(&row).Error; err != nil {
		return 0, false, err
	}
	if row.ID == uuid.Nil {
		return 0, false, nil
	}
	return row.Similarity, true, nil
}

func (r *tagSimilarityRepo) Upsert(dbc dbctx.Context, a, b uuid.UUID, similarity float64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if a == uuid.Nil || b == uuid.Nil || a == b {
		return nil
	}
	lo, hi := matchdom.CanonicalPair(a, b)
	row := types.TagSimilarity{
		ID:         uuid.New(),
		TagA:       lo,
		TagB:       hi,
		Similarity: similarity,
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag_a"}, {Name: "tag_b"}},
			DoUpdates: clause.AssignmentColumns([]string{"similarity", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *tagSimilarityRepo) FindSimilarByTagID(dbc dbctx.Context, tagID uuid.UUID, minSimilarity float64) ([]SimilarTag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []SimilarTag
	if tagID == uuid.Nil {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.TagSimilarity{}).
		Select(`CASE WHEN tag_a = ? THEN tag_b ELSE tag_a END AS tag_id, similarity`, tagID).
		Where("(tag_a = ? OR tag_b = ?) AND similarity >= ?", tagID, tagID, minSimilarity).
		Order("similarity DESC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
