package routes

import (
	"chemtrack-backend/controllers"
	"chemtrack-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupHistoryRoutes wires the change-history endpoints.
func SetupHistoryRoutes(app *fiber.App, historyController *controllers.HistoryController) {
	history := app.Group("/api/history", utils.AuthMiddleware)

	// GET /api/history - change history with running totals
	history.Get("/", historyController.List)

	// POST /api/history/:id/attachment - attach a receipt to a past change
	history.Post("/:id/attachment", historyController.AttachReceipt)

	// GET /api/history/:id/attachment - re-sign the stored receipt URL
	history.Get("/:id/attachment", historyController.GetReceiptURL)
}
