// handlers/claim_routes.go
package handlers

import (
	"prize-hunt-system/middleware"
	"prize-hunt-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupClaimRoutes wires the claim settlement RPC and the capture live feed.
// The gateway forwards user identity via X-User-ID on /s/ paths.
func SetupClaimRoutes(app *fiber.App, claimService *services.ClaimService, liveFeed *services.LiveFeedService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// The claim operation. Retries with the same idempotency_key return the
	// stored settlement verbatim.
	securedGroup.Post("/s/prizes/:id/claim", claimService.ClaimPrize)

	securedGroup.Get("/s/claims", claimService.ListMyClaims)
	securedGroup.Get("/s/claims/:id", claimService.GetClaim)

	// Real-time capture fan-out for dashboards
	securedGroup.Get("/s/feed/captures", liveFeed.StreamCapturesSSE)
}
