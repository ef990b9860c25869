package app

import (
	"strings"
	"time"

	"github.com/gradlink/gradlink-backend/internal/cache"
	"github.com/gradlink/gradlink-backend/internal/listener"
	"github.com/gradlink/gradlink-backend/internal/platform/envutil"
)

type Config struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RequestCooldown time.Duration
	SimilarityTTL   time.Duration
	IdentityTTL     time.Duration

	ListenerChannel     string
	ListenerMaxAttempts int

	AllowOrigins []string
}

func LoadConfig() Config {
	cooldownDays := envutil.Int("REQUEST_COOLDOWN_DAYS", 30)
	origins := strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		JWTSecretKey:        envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:      envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
		RequestCooldown:     time.Duration(cooldownDays) * 24 * time.Hour,
		SimilarityTTL:       envutil.Duration("SIMILARITY_CACHE_TTL", cache.DefaultSimilarityTTL),
		IdentityTTL:         envutil.Duration("IDENTITY_CACHE_TTL", cache.DefaultIdentityTTL),
		ListenerChannel:     envutil.String("LISTENER_CHANNEL", listener.DefaultChannel),
		ListenerMaxAttempts: envutil.Int("LISTENER_MAX_ATTEMPTS", listener.DefaultMaxAttempts),
		AllowOrigins:        origins,
	}
}
