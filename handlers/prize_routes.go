// handlers/prize_routes.go
package handlers

import (
	"prize-hunt-system/middleware"
	"prize-hunt-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupPrizeRoutes wires the prize browse surface and the thin admin
// authoring endpoints.
func SetupPrizeRoutes(app *fiber.App, prizeService *services.PrizeService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// nearby must register before the :id route
	securedGroup.Get("/s/prizes/nearby", prizeService.ListNearby)
	securedGroup.Get("/s/prizes/:id", prizeService.GetPrize)

	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())
	adminGroup.Post("/prizes", prizeService.CreatePrize)
	adminGroup.Patch("/prizes/:id/status", prizeService.UpdatePrizeStatus)
}
