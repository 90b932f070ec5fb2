// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/campreserve/enrollment-scheduler/internal/handler"
	"github.com/campreserve/enrollment-scheduler/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and the protected /v1
// group.  Unauthenticated operations live under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "SCHEDULER"))
	auth.GET("/me", a.Me)
}

// RegisterScheduling registers the enrollment scheduling routes.  Every
// mutation requires an authenticated scheduler or admin; the availability
// lookup is read-only but still sits behind auth since it exposes
// occupancy.
func RegisterScheduling(e *echo.Echo, h *handler.SchedulingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "SCHEDULER"))

	g.POST("/faction-enrollments", h.CreateFactionEnrollment)
	g.PUT("/faction-enrollments/:id", h.UpdateFactionEnrollment)
	g.DELETE("/faction-enrollments/:id", h.DeleteFactionEnrollment)

	g.POST("/attendee-enrollments", h.CreateAttendeeEnrollment)
	g.PUT("/attendee-enrollments/:id", h.UpdateAttendeeEnrollment)
	g.DELETE("/attendee-enrollments/:id", h.DeleteAttendeeEnrollment)

	g.POST("/leader-enrollments", h.CreateLeaderEnrollment)
	g.PUT("/leader-enrollments/:id", h.UpdateLeaderEnrollment)
	g.DELETE("/leader-enrollments/:id", h.DeleteLeaderEnrollment)

	g.POST("/faculty-enrollments", h.CreateFacultyEnrollment)
	g.PUT("/faculty-enrollments/:id", h.UpdateFacultyEnrollment)
	g.DELETE("/faculty-enrollments/:id", h.DeleteFacultyEnrollment)

	g.POST("/class-enrollments/attendees", h.AssignAttendeeToClass)
	g.DELETE("/class-enrollments/attendees/:id", h.DropAttendeeClassEnrollment)
	g.POST("/class-enrollments/faculty", h.AssignFacultyToClass)
	g.DELETE("/class-enrollments/faculty/:id", h.DropFacultyClassEnrollment)

	g.GET("/class-offerings/:id/availability", h.ClassAvailability)
}
