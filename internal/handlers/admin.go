package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/services"
)

type AdminHandler struct {
	adminService    services.AdminService
	identityService services.IdentityService
}

func NewAdminHandler(adminService services.AdminService, identityService services.IdentityService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		identityService: identityService,
	}
}

type createTagsBody struct {
	Names []string `json:"names" binding:"required"`
}

func (ah *AdminHandler) CreateTags(c *gin.Context) {
	var body createTagsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	created, err := ah.adminService.CreateTags(c.Request.Context(), body.Names)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, gin.H{"tags": created})
}

type upsertSimilarityBody struct {
	TagA       uuid.UUID `json:"tag_a" binding:"required"`
	TagB       uuid.UUID `json:"tag_b" binding:"required"`
	Similarity float64   `json:"similarity"`
}

func (ah *AdminHandler) UpsertSimilarity(c *gin.Context) {
	var body upsertSimilarityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := ah.adminService.UpsertSimilarity(c.Request.Context(), body.TagA, body.TagB, body.Similarity); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (ah *AdminHandler) InvalidateSimilarity(c *gin.Context) {
	if err := ah.adminService.InvalidateSimilarity(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (ah *AdminHandler) EvictIdentity(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := ah.identityService.Invalidate(c.Request.Context(), userID); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"evicted": userID})
}

func (ah *AdminHandler) ListenerStatus(c *gin.Context) {
	status, err := ah.adminService.ListenerStatus(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": status})
}

func (ah *AdminHandler) Health(c *gin.Context) {
	health, err := ah.adminService.Health(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	for _, ok := range health {
		if !ok {
			c.JSON(http.StatusServiceUnavailable, health)
			return
		}
	}
	RespondOK(c, health)
}
