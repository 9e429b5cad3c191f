package routes

import (
	"chemtrack-backend/controllers"
	"chemtrack-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// SetupChemicalRoutes wires the catalog endpoints.
func SetupChemicalRoutes(app *fiber.App, chemicalController *controllers.ChemicalController) {
	chemicals := app.Group("/api/chemicals", utils.AuthMiddleware)

	// GET /api/chemicals - list the catalog
	chemicals.Get("/", chemicalController.List)

	// POST /api/chemicals - add a chemical type and seed zero balances
	chemicals.Post("/", chemicalController.Create)
}
