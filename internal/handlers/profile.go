package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/services"
)

type ProfileHandler struct {
	profileService  services.ProfileService
	identityService services.IdentityService
}

func NewProfileHandler(profileService services.ProfileService, identityService services.IdentityService) *ProfileHandler {
	return &ProfileHandler{
		profileService:  profileService,
		identityService: identityService,
	}
}

func (ph *ProfileHandler) GetMe(c *gin.Context) {
	me, err := ph.identityService.Me(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"me": me})
}

func (ph *ProfileHandler) ListTags(c *gin.Context) {
	tags, err := ph.profileService.ListTags(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"tags": tags})
}

type setAffinitiesBody struct {
	Affinities []services.AffinityInput `json:"affinities"`
}

func (ph *ProfileHandler) SetAffinities(c *gin.Context) {
	var body setAffinitiesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	rows, err := ph.profileService.SetAffinities(c.Request.Context(), body.Affinities)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"affinities": rows})
}

func (ph *ProfileHandler) MyAffinities(c *gin.Context) {
	rows, err := ph.profileService.MyAffinities(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"affinities": rows})
}

func (ph *ProfileHandler) SimilarTags(c *gin.Context) {
	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	minSimilarity := 0.0
	if raw := c.Query("min"); raw != "" {
		minSimilarity, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
	}
	similar, err := ph.profileService.SimilarTags(c.Request.Context(), tagID, minSimilarity)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"similar": similar})
}

func (ph *ProfileHandler) ListSupervisors(c *gin.Context) {
	supervisors, err := ph.profileService.ListAvailableSupervisors(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"supervisors": supervisors})
}

type blockBody struct {
	SupervisorID uuid.UUID `json:"supervisor_id" binding:"required"`
}

func (ph *ProfileHandler) Block(c *gin.Context) {
	var body blockBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := ph.profileService.BlockSupervisor(c.Request.Context(), body.SupervisorID); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"blocked": body.SupervisorID})
}

func (ph *ProfileHandler) Unblock(c *gin.Context) {
	supervisorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := ph.profileService.UnblockSupervisor(c.Request.Context(), supervisorID); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"unblocked": supervisorID})
}
