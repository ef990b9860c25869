package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/gradlink/gradlink-backend/internal/services"
)

type MatchHandler struct {
	matchingService services.MatchingService
}

func NewMatchHandler(matchingService services.MatchingService) *MatchHandler {
	return &MatchHandler{matchingService: matchingService}
}

func (mh *MatchHandler) GetMatches(c *gin.Context) {
	ranked, err := mh.matchingService.Match(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": ranked})
}
