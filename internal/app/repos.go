package app

import (
	"gorm.io/gorm"

	"github.com/gradlink/gradlink-backend/internal/data/repos"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type Repos struct {
	User       repos.UserRepo
	Student    repos.StudentRepo
	Supervisor repos.SupervisorRepo

	Tag           repos.TagRepo
	TagAffinity   repos.TagAffinityRepo
	TagSimilarity repos.TagSimilarityRepo

	Block   repos.BlockRepo
	Request repos.SupervisionRequestRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Student:       repos.NewStudentRepo(db, log),
		Supervisor:    repos.NewSupervisorRepo(db, log),
		Tag:           repos.NewTagRepo(db, log),
		TagAffinity:   repos.NewTagAffinityRepo(db, log),
		TagSimilarity: repos.NewTagSimilarityRepo(db, log),
		Block:         repos.NewBlockRepo(db, log),
		Request:       repos.NewSupervisionRequestRepo(db, log),
	}
}
