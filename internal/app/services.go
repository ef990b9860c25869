package app

import (
	"gorm.io/gorm"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/listener"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
	"github.com/gradlink/gradlink-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Identity      services.IdentityService
	Profile       services.ProfileService
	Compatibility services.CompatibilityService
	Matching      services.MatchingService
	Request       services.RequestService
	Admin         services.AdminService
}

type Caches struct {
	Store      cache.Store
	Similarity *cache.SimilarityCache
	Identity   *cache.IdentityCache
}

func wireCaches(cfg Config, log *logger.Logger) (Caches, error) {
	store, err := cache.NewRedisStore(log)
	if err != nil {
		return Caches{}, err
	}
	return Caches{
		Store:      store,
		Similarity: cache.NewSimilarityCache(store, log, cfg.SimilarityTTL),
		Identity:   cache.NewIdentityCache(store, log, cfg.IdentityTTL),
	}, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, caches Caches, changes *listener.ChangeListener) Services {
	log.Info("Wiring services...")

	identity := services.NewIdentityService(reposet.User, reposet.Student, reposet.Supervisor, caches.Identity, log)
	auth := services.NewAuthService(identity, cfg.JWTSecretKey, cfg.AccessTokenTTL, log)
	profile := services.NewProfileService(reposet.Tag, reposet.TagAffinity, reposet.TagSimilarity, reposet.Supervisor, reposet.Block, log)
	compatibility := services.NewCompatibilityService(caches.Similarity, reposet.TagSimilarity, log)
	matching := services.NewMatchingService(compatibility, reposet.Supervisor, reposet.User, reposet.TagAffinity, reposet.Block, reposet.Request, log)
	request := services.NewRequestService(db, log, cfg.RequestCooldown, reposet.User, reposet.Student, reposet.Supervisor, reposet.Request, caches.Identity)
	admin := services.NewAdminService(reposet.Tag, reposet.TagSimilarity, caches.Similarity, caches.Identity, changes, log)

	return Services{
		Auth:          auth,
		Identity:      identity,
		Profile:       profile,
		Compatibility: compatibility,
		Matching:      matching,
		Request:       request,
		Admin:         admin,
	}
}
