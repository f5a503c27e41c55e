package routes

import (
	"caresched/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all endpoints for the scheduling engine.
func RegisterRoutes(
	r *gin.Engine,
	solicitationHandler *handlers.SolicitationHandler,
	appointmentHandler *handlers.AppointmentHandler,
	exceptionHandler *handlers.ExceptionHandler,
) {
	solicitations := r.Group("/api/solicitations")
	{
		solicitations.POST("", solicitationHandler.Create)
		solicitations.GET("/:id", solicitationHandler.Get)
		solicitations.POST("/:id/schedule", solicitationHandler.Schedule)
		solicitations.POST("/:id/reschedule", solicitationHandler.Reschedule)
	}

	appointments := r.Group("/api/appointments")
	{
		appointments.GET("/:id", appointmentHandler.Get)
		appointments.POST("/:id/confirm", appointmentHandler.Confirm)
		appointments.POST("/:id/cancel", appointmentHandler.Cancel)
		appointments.POST("/:id/complete", appointmentHandler.Complete)
		appointments.POST("/:id/missed", appointmentHandler.MarkMissed)
	}

	exceptions := r.Group("/api/exceptions")
	{
		exceptions.POST("", exceptionHandler.Request)
		exceptions.POST("/:id/approve", exceptionHandler.Approve)
		exceptions.POST("/:id/reject", exceptionHandler.Reject)
	}
}
