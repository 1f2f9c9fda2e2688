package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/practicekit/scheduling-api/internal/middleware"
	"github.com/practicekit/scheduling-api/internal/models"
	"github.com/practicekit/scheduling-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Availability *AvailabilityHandler
	Appointments *AppointmentHandler
	Calendar     *CalendarHandler
	Patterns     *PatternHandler
	Exceptions   *ExceptionHandler
	Export       *ExportHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts the API under the given prefix. All scheduling
// routes require a valid staff token; index rebuild is admin only.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.JWT(auth))

	api.GET("/availability", h.Availability.Resolve)

	appointments := api.Group("/appointments")
	{
		appointments.POST("", h.Appointments.Create)
		appointments.GET("/:id", h.Appointments.Get)
		appointments.PATCH("/:id/move", h.Appointments.Move)
		appointments.POST("/:id/cancel", h.Appointments.Cancel)
		appointments.POST("/:id/check-conflict", h.Appointments.CheckConflict)
	}

	api.GET("/calendar", h.Calendar.Query)
	api.GET("/export/day-sheet", h.Export.DaySheet)

	managed := api.Group("")
	managed.Use(middleware.RequireRoles(models.RoleAdmin, models.RolePractitioner))
	{
		managed.POST("/patterns", h.Patterns.Create)
		managed.PUT("/patterns/:id", h.Patterns.Update)
		managed.DELETE("/patterns/:id", h.Patterns.Deactivate)
		managed.POST("/exceptions", h.Exceptions.Create)
		managed.DELETE("/exceptions/:id", h.Exceptions.Delete)
	}
	api.GET("/patterns", h.Patterns.List)
	api.GET("/patterns/:id", h.Patterns.Get)
	api.GET("/exceptions", h.Exceptions.List)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/calendar-index/rebuild", h.Calendar.RebuildIndex)
	}
}
