package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gradlink/gradlink-backend/internal/data/repos"
	types "github.com/gradlink/gradlink-backend/internal/domain"
	"github.com/gradlink/gradlink-backend/internal/services"
)

type RequestHandler struct {
	requestService services.RequestService
}

func NewRequestHandler(requestService services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

type createRequestBody struct {
	SupervisorID uuid.UUID `json:"supervisor_id" binding:"required"`
}

func (rh *RequestHandler) Create(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	created, err := rh.requestService.CreateByStudent(c.Request.Context(), body.SupervisorID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, gin.H{"request": created})
}

type directAcceptBody struct {
	StudentEmail string `json:"student_email" binding:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

func (rh *RequestHandler) DirectAccept(c *gin.Context) {
	var body directAcceptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	result, err := rh.requestService.CreateBySupervisor(c.Request.Context(), body.StudentEmail, body.FirstName, body.LastName)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondCreated(c, result)
}

type transitionBody struct {
	State types.RequestState `json:"state" binding:"required"`
}

func (rh *RequestHandler) Transition(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	updated, err := rh.requestService.Transition(c.Request.Context(), requestID, body.State)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"request": updated})
}

func (rh *RequestHandler) Get(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	request, err := rh.requestService.Get(c.Request.Context(), requestID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"request": request})
}

func (rh *RequestHandler) List(c *gin.Context) {
	var filter repos.RequestFilter
	for _, raw := range c.QueryArray("state") {
		state := types.RequestState(raw)
		if !state.Valid() {
			RespondError(c, http.StatusBadRequest, "validation", nil)
			return
		}
		filter.States = append(filter.States, state)
	}
	results, err := rh.requestService.List(c.Request.Context(), filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"requests": results})
}

func (rh *RequestHandler) CountForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	state := types.RequestState(c.Query("state"))
	count, err := rh.requestService.CountForUser(c.Request.Context(), userID, state)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": count})
}
