package controllers

import (
	"fmt"
	"strings"

	"chemtrack-backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthController handles the Google sign-in flow. There is no user table:
// whoever presents a valid Google identity on the allowed domain is in.
type AuthController struct {
	Verifier *utils.GoogleVerifier
	Domain   string
}

// NewAuthController creates an AuthController for the given email domain
// (default encorelm.com).
func NewAuthController(verifier *utils.GoogleVerifier, allowedDomain string) *AuthController {
	domain := strings.TrimPrefix(strings.ToLower(allowedDomain), "@")
	if domain == "" {
		domain = "encorelm.com"
	}
	return &AuthController{Verifier: verifier, Domain: domain}
}

// GoogleLoginRequest carries the ID token from the Google sign-in widget.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// AuthResponse is the login response shape.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user,omitempty"`
}

// GoogleLogin verifies a Google ID token, enforces the organization domain
// and issues a session token.
func (ac *AuthController) GoogleLogin(c *fiber.Ctx) error {
	var req GoogleLoginRequest

	if err := c.BodyParser(&req); err != nil || req.Credential == "" {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Message: "Missing Google credential",
		})
	}

	claims, err := ac.Verifier.Verify(req.Credential)
	if err != nil {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Message: "Invalid identity token",
		})
	}

	email := strings.ToLower(claims.Email)
	if !strings.HasSuffix(email, "@"+ac.Domain) {
		return c.Status(403).JSON(AuthResponse{
			Success: false,
			Message: fmt.Sprintf("Please use your %s email to login", ac.Domain),
		})
	}

	token, err := utils.GenerateJWT(email, claims.Name)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Message: "Failed to create session token",
		})
	}

	resp := AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
	}
	resp.User.Name = claims.Name
	resp.User.Email = email
	return c.JSON(resp)
}
