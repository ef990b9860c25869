package app

import (
	"github.com/gin-gonic/gin"

	"github.com/gradlink/gradlink-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:   cfg.AllowOrigins,
		AuthMiddleware: mw.Auth,
		ProfileHandler: handlerset.Profile,
		MatchHandler:   handlerset.Match,
		RequestHandler: handlerset.Request,
		AdminHandler:   handlerset.Admin,
	})
}
