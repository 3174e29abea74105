package handlers

import (
	"github.com/gin-gonic/gin"

	"medibot/monitoring"
)

type Routes struct {
	Appointments *AppointmentHandler
	Pages        *PageHandler
	Health       *HealthHandler
	StaticDir    string
}

func RegisterRoutes(r *gin.Engine, routes Routes) {
	r.GET("/", routes.Pages.Home)
	r.GET("/appointments", routes.Pages.AppointmentsPage)
	r.POST("/upload", routes.Pages.Upload)
	r.Static("/static", routes.StaticDir)

	r.GET("/health", routes.Health.Health)
	r.GET("/metrics", gin.WrapH(monitoring.Handler()))

	api := r.Group("/api/appointments")
	{
		api.POST("/book", routes.Appointments.BookAppointment)
		api.GET("", routes.Appointments.ListAppointments)
		api.GET("/:id", routes.Appointments.GetAppointment)
		if routes.Appointments.SearchEnabled() {
			api.GET("/search", routes.Appointments.SearchAppointments)
		}
	}
}
