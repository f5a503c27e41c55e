package handlers

import (
	"errors"
	"net/http"
	"time"

	exceptionRepo "caresched/database/repository/exception"
	solicitationRepo "caresched/database/repository/solicitation"
	"caresched/models"
	"caresched/services/exception"
	"caresched/utils"

	"github.com/gin-gonic/gin"
)

// ExceptionHandler exposes the manual-override workflow.
type ExceptionHandler struct {
	Workflow exception.Workflow
}

func NewExceptionHandler(workflow exception.Workflow) *ExceptionHandler {
	return &ExceptionHandler{Workflow: workflow}
}

type requestExceptionInput struct {
	SolicitationID string              `json:"solicitationId" binding:"required"`
	ProviderKind   models.ProviderKind `json:"providerKind" binding:"required"`
	ProviderID     string              `json:"providerId" binding:"required"`
	Price          float64             `json:"price" binding:"required"`
	Date           time.Time           `json:"date" binding:"required"`
	Reason         string              `json:"reason" binding:"required"`
}

func (h *ExceptionHandler) Request(c *gin.Context) {
	var input requestExceptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if !input.ProviderKind.Valid() {
		utils.JSONError(c, http.StatusBadRequest, "invalid provider kind", string(input.ProviderKind))
		return
	}

	exc, err := h.Workflow.Request(c.Request.Context(), exception.RequestInput{
		SolicitationID: input.SolicitationID,
		Provider:       models.ProviderRef{Kind: input.ProviderKind, ID: input.ProviderID},
		Price:          input.Price,
		Date:           input.Date,
		Reason:         input.Reason,
		RequestedBy:    actor(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, exception.ErrProviderNotFound):
			utils.JSONError(c, http.StatusNotFound, "requested provider not found", "")
		case errors.Is(err, solicitationRepo.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "solicitation not found", "")
		default:
			utils.JSONError(c, http.StatusInternalServerError, "failed to request exception", err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, exc)
}

func (h *ExceptionHandler) Approve(c *gin.Context) {
	appt, err := h.Workflow.Approve(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		switch {
		case errors.Is(err, exception.ErrAlreadyResolved):
			utils.JSONError(c, http.StatusConflict, "exception already resolved", "")
		case errors.Is(err, exceptionRepo.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "exception not found", "")
		default:
			utils.JSONError(c, http.StatusInternalServerError, "failed to approve exception", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointmentId": appt.ID, "appointment": appt})
}

type rejectExceptionInput struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *ExceptionHandler) Reject(c *gin.Context) {
	var input rejectExceptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "a reason is required", err.Error())
		return
	}

	if err := h.Workflow.Reject(c.Request.Context(), c.Param("id"), actor(c), input.Reason); err != nil {
		switch {
		case errors.Is(err, exception.ErrAlreadyResolved):
			utils.JSONError(c, http.StatusConflict, "exception already resolved", "")
		case errors.Is(err, exceptionRepo.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "exception not found", "")
		case errors.Is(err, exception.ErrReasonRequired):
			utils.JSONError(c, http.StatusBadRequest, "a reason is required", "")
		default:
			utils.JSONError(c, http.StatusInternalServerError, "failed to reject exception", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": models.ExceptionRejected})
}
