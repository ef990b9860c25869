package app

import (
	"github.com/gradlink/gradlink-backend/internal/handlers"
	"github.com/gradlink/gradlink-backend/internal/platform/logger"
)

type Handlers struct {
	Profile *handlers.ProfileHandler
	Match   *handlers.MatchHandler
	Request *handlers.RequestHandler
	Admin   *handlers.AdminHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Profile: handlers.NewProfileHandler(serviceset.Profile, serviceset.Identity),
		Match:   handlers.NewMatchHandler(serviceset.Matching),
		Request: handlers.NewRequestHandler(serviceset.Request),
		Admin:   handlers.NewAdminHandler(serviceset.Admin, serviceset.Identity),
	}
}
