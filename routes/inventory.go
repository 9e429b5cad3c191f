package routes

import (
	"chemtrack-backend/controllers"
	"chemtrack-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupInventoryRoutes wires the ledger and level-view endpoints.
func SetupInventoryRoutes(app *fiber.App, inventoryController *controllers.InventoryController) {
	inventory := app.Group("/api/inventory", utils.AuthMiddleware)

	// POST /api/inventory/changes - record an inventory change
	inventory.Post("/changes", inventoryController.RecordChange)

	// GET /api/inventory/levels - combined per-chemical per-branch balances
	inventory.Get("/levels", inventoryController.GetLevels)

	// GET /api/inventory/chart - gallon series for the levels chart
	inventory.Get("/chart", inventoryController.GetChart)
}
