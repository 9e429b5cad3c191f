package routes

import (
	"chemtrack-backend/controllers"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes wires the login endpoints.
func SetupAuthRoutes(app *fiber.App, authController *controllers.AuthController) {
	auth := app.Group("/auth")

	// POST /auth/google - exchange a Google ID token for a session token
	auth.Post("/google", authController.GoogleLogin)
}
