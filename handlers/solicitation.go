package handlers

import (
	"errors"
	"net/http"
	"time"

	appointmentRepo "caresched/database/repository/appointment"
	solicitationRepo "caresched/database/repository/solicitation"
	"caresched/models"
	"caresched/services/geo"
	"caresched/services/scheduling"
	"caresched/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SolicitationHandler exposes intake and scheduling triggers over HTTP.
type SolicitationHandler struct {
	Solicitations solicitationRepo.SolicitationRepository
	Appointments  appointmentRepo.AppointmentRepository
	Geo           geo.Service
	Orchestrator  scheduling.Orchestrator
	Enqueue       func(c *gin.Context, solicitationID string) error
	Logger        *zap.Logger
}

func NewSolicitationHandler(
	solicitations solicitationRepo.SolicitationRepository,
	appointments appointmentRepo.AppointmentRepository,
	geoSvc geo.Service,
	orch scheduling.Orchestrator,
	enqueue func(c *gin.Context, solicitationID string) error,
	logger *zap.Logger,
) *SolicitationHandler {
	return &SolicitationHandler{
		Solicitations: solicitations,
		Appointments:  appointments,
		Geo:           geoSvc,
		Orchestrator:  orch,
		Enqueue:       enqueue,
		Logger:        logger,
	}
}

type createSolicitationInput struct {
	PatientID       string    `json:"patientId" binding:"required"`
	ProcedureCode   string    `json:"procedureCode" binding:"required"`
	PayerID         string    `json:"payerId" binding:"required"`
	WindowStart     time.Time `json:"windowStart" binding:"required"`
	WindowEnd       time.Time `json:"windowEnd" binding:"required"`
	Address         string    `json:"address"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	RadiusKm        float64   `json:"radiusKm"`
	State           string    `json:"state"`
	City            string    `json:"city"`
	DurationMinutes int       `json:"durationMinutes"`
}

// Create registers a new pending solicitation. When only an address is
// given, it is geocoded best-effort; a geocoder outage degrades to a
// locationless solicitation instead of rejecting the intake.
func (h *SolicitationHandler) Create(c *gin.Context) {
	var input createSolicitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	var location *models.GeoPoint
	if input.Latitude != nil && input.Longitude != nil {
		p := models.NewGeoPoint(*input.Latitude, *input.Longitude)
		location = &p
	} else if input.Address != "" {
		if lat, lng, ok := h.Geo.Geocode(c.Request.Context(), input.Address); ok {
			p := models.NewGeoPoint(lat, lng)
			location = &p
		} else {
			h.Logger.Warn("intake proceeding without coordinates",
				zap.String("address", input.Address))
		}
	}

	now := time.Now()
	sol := &models.Solicitation{
		ID:              uuid.New().String(),
		PatientID:       input.PatientID,
		ProcedureCode:   input.ProcedureCode,
		PayerID:         input.PayerID,
		WindowStart:     input.WindowStart,
		WindowEnd:       input.WindowEnd,
		Location:        location,
		RadiusKm:        input.RadiusKm,
		State:           input.State,
		City:            input.City,
		DurationMinutes: input.DurationMinutes,
		Status:          models.SolicitationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.Solicitations.Create(sol); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create solicitation", err.Error())
		return
	}

	c.JSON(http.StatusCreated, sol)
}

// Get returns the solicitation together with its active appointment, if any.
func (h *SolicitationHandler) Get(c *gin.Context) {
	sol, err := h.Solicitations.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, solicitationRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "solicitation not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch solicitation", err.Error())
		return
	}

	appt, err := h.Appointments.GetActiveBySolicitation(sol.ID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch appointment", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"solicitation": sol, "appointment": appt})
}

type rescheduleInput struct {
	WindowStart time.Time `json:"windowStart" binding:"required"`
	WindowEnd   time.Time `json:"windowEnd" binding:"required"`
}

// Reschedule supersedes the solicitation with a fresh pending one carrying a
// new preferred window. The old appointment, if any, is cancelled; its time
// is never edited in place.
func (h *SolicitationHandler) Reschedule(c *gin.Context) {
	var input rescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	old, err := h.Solicitations.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, solicitationRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "solicitation not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch solicitation", err.Error())
		return
	}
	if old.SupersededBy != "" {
		utils.JSONError(c, http.StatusConflict, "solicitation already superseded", old.SupersededBy)
		return
	}

	appt, err := h.Appointments.GetActiveBySolicitation(old.ID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch appointment", err.Error())
		return
	}
	if appt != nil {
		if err := h.Appointments.SetStatus(appt.ID,
			[]string{models.AppointmentScheduled, models.AppointmentConfirmed},
			models.AppointmentCancelled, actor(c)); err != nil {
			utils.JSONError(c, http.StatusConflict, "cannot cancel existing appointment", err.Error())
			return
		}
	}

	now := time.Now()
	successor := &models.Solicitation{
		ID:              uuid.New().String(),
		PatientID:       old.PatientID,
		ProcedureCode:   old.ProcedureCode,
		PayerID:         old.PayerID,
		WindowStart:     input.WindowStart,
		WindowEnd:       input.WindowEnd,
		Location:        old.Location,
		RadiusKm:        old.RadiusKm,
		State:           old.State,
		City:            old.City,
		DurationMinutes: old.DurationMinutes,
		Status:          models.SolicitationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.Solicitations.Create(successor); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create solicitation", err.Error())
		return
	}
	if err := h.Solicitations.MarkSuperseded(old.ID, successor.ID); err != nil {
		h.Logger.Warn("failed to link superseded solicitation",
			zap.String("solicitation_id", old.ID),
			zap.String("successor_id", successor.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusCreated, successor)
}

// Schedule runs a scheduling attempt. With ?async=true the attempt is
// queued; otherwise it runs inline and the response carries either the
// appointment or a structured failure reason.
func (h *SolicitationHandler) Schedule(c *gin.Context) {
	id := c.Param("id")

	if c.Query("async") == "true" {
		if err := h.Enqueue(c, id); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to enqueue scheduling attempt", err.Error())
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"solicitationId": id, "queued": true})
		return
	}

	appt, err := h.Orchestrator.Schedule(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, solicitationRepo.ErrNotFound):
			utils.JSONError(c, http.StatusNotFound, "solicitation not found", "")
		case errors.Is(err, scheduling.ErrNoProviders),
			errors.Is(err, scheduling.ErrNoSlot),
			errors.Is(err, scheduling.ErrSchedulingDisabled),
			errors.Is(err, scheduling.ErrAwaitingManual):
			c.JSON(http.StatusOK, gin.H{"scheduled": false, "reason": err.Error()})
		default:
			utils.JSONError(c, http.StatusInternalServerError, "scheduling attempt failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduled": true, "appointmentId": appt.ID, "appointment": appt})
}
