package repos

import (
	"gorm.io/gorm"

	"github.com/gradlink/gradlink-backend/internal/data/repos/matching"
	"github.com/gradlink/gradlink-backend/internal/data/repos/requests"
	"github.com/gradlink/gradlink-backend/internal/data/repos/tags"
	"github.com/gradlink/gradlink-backend/internal/data/repos/user"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type StudentRepo = user.StudentRepo
type SupervisorRepo = user.SupervisorRepo

type TagRepo = tags.TagRepo
type TagAffinityRepo = tags.TagAffinityRepo
type TagSimilarityRepo = tags.TagSimilarityRepo
type SimilarTag = tags.SimilarTag

type BlockRepo = matching.BlockRepo

type SupervisionRequestRepo = requests.SupervisionRequestRepo
type RequestFilter = requests.Filter

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewStudentRepo(db *gorm.DB, baseLog *logger.Logger) StudentRepo {
	return user.NewStudentRepo(db, baseLog)
}
func NewSupervisorRepo(db *gorm.DB, baseLog *logger.Logger) SupervisorRepo {
	return user.NewSupervisorRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo { return tags.NewTagRepo(db, baseLog) }
func NewTagAffinityRepo(db *gorm.DB, baseLog *logger.Logger) TagAffinityRepo {
	return tags.NewTagAffinityRepo(db, baseLog)
}
func NewTagSimilarityRepo(db *gorm.DB, baseLog *logger.Logger) TagSimilarityRepo {
	return tags.NewTagSimilarityRepo(db, baseLog)
}
func NewBlockRepo(db *gorm.DB, baseLog *logger.Logger) BlockRepo {
	return matching.NewBlockRepo(db, baseLog)
}
func NewSupervisionRequestRepo(db *gorm.DB, baseLog *logger.Logger) SupervisionRequestRepo {
	return requests.NewSupervisionRequestRepo(db, baseLog)
}
