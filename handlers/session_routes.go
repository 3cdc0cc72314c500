// handlers/session_routes.go
package handlers

import (
	"prize-hunt-system/middleware"
	"prize-hunt-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupSessionRoutes wires the play-session telemetry endpoints.
func SetupSessionRoutes(app *fiber.App, sessionService *services.SessionService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/s/sessions", sessionService.StartSession)
	securedGroup.Post("/s/sessions/:id/locations", sessionService.RecordLocation)
	securedGroup.Post("/s/sessions/:id/end", sessionService.EndSession)
	securedGroup.Get("/s/sessions/:id", sessionService.GetSession)

	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())
	adminGroup.Get("/sessions/flagged", sessionService.ListFlaggedSessions)
}
