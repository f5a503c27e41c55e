package handlers

import (
	"errors"
	"net/http"

	appointmentRepo "caresched/database/repository/appointment"
	"caresched/models"
	"caresched/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler exposes the appointment lifecycle operations.
type AppointmentHandler struct {
	Appointments appointmentRepo.AppointmentRepository
}

func NewAppointmentHandler(appointments appointmentRepo.AppointmentRepository) *AppointmentHandler {
	return &AppointmentHandler{Appointments: appointments}
}

// actor identifies the acting user for audit fields. Authorization itself is
// handled upstream of this service.
func actor(c *gin.Context) string {
	if a := c.GetHeader("X-Actor-ID"); a != "" {
		return a
	}
	return "operator"
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	appt, err := h.Appointments.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch appointment", err.Error())
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	err := h.Appointments.SetStatus(c.Param("id"),
		[]string{models.AppointmentScheduled}, models.AppointmentConfirmed, actor(c))
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		utils.JSONError(c, http.StatusConflict, "cannot confirm appointment", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.AppointmentConfirmed})
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	err := h.Appointments.SetStatus(c.Param("id"),
		[]string{models.AppointmentScheduled, models.AppointmentConfirmed}, models.AppointmentCancelled, actor(c))
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		utils.JSONError(c, http.StatusConflict, "cannot cancel appointment", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.AppointmentCancelled})
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	err := h.Appointments.SetStatus(c.Param("id"),
		[]string{models.AppointmentConfirmed}, models.AppointmentCompleted, actor(c))
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		utils.JSONError(c, http.StatusConflict, "cannot complete appointment", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.AppointmentCompleted})
}

func (h *AppointmentHandler) MarkMissed(c *gin.Context) {
	err := h.Appointments.SetStatus(c.Param("id"),
		[]string{models.AppointmentConfirmed}, models.AppointmentMissed, actor(c))
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", "")
			return
		}
		utils.JSONError(c, http.StatusConflict, "cannot mark appointment missed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.AppointmentMissed})
}
