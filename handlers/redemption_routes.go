// handlers/redemption_routes.go
package handlers

import (
	"prize-hunt-system/middleware"
	"prize-hunt-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRedemptionRoutes wires reward browsing, point redemption and the
// fulfillment-workflow endpoints.
func SetupRedemptionRoutes(app *fiber.App, redemptionService *services.RedemptionService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/s/rewards/:id", redemptionService.GetReward)
	securedGroup.Post("/s/rewards/:id/redeem", redemptionService.RedeemReward)
	securedGroup.Get("/s/user/redemptions", redemptionService.ListMyRedemptions)

	// Fulfillment workflow (external collaborator) confirms or releases
	// reservations through the admin surface.
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())
	adminGroup.Post("/rewards", redemptionService.CreateReward)
	adminGroup.Post("/redemptions/:id/confirm", redemptionService.ConfirmRedemption)
	adminGroup.Post("/redemptions/:id/release", redemptionService.ReleaseRedemption)
}
