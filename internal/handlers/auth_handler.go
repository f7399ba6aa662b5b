package handlers

import (
	"log"

	"nutrifit/internal/services"
	"nutrifit/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	schema      *validation.Schema
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		schema:      validation.NewSchema(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	req, err := h.schema.DecodeRegister(c.Body())
	if err != nil {
		return respondError(c, err, "")
	}

	user := req.User()
	if err := h.authService.RegisterUser(user); err != nil {
		return respondError(c, err, "Error interno del servidor al registrar el usuario.")
	}

	log.Printf("Registered user %d (%s)", user.ID, user.Email)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Usuario registrado correctamente.",
		"usuario": user,
	})
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	req, err := h.schema.DecodeLogin(c.Body())
	if err != nil {
		return respondError(c, err, "")
	}

	token, err := h.authService.LoginUser(req.Email, req.Password)
	if err != nil {
		log.Printf("Login failed for %s: %v", req.Email, err)
		return respondError(c, err, "Error interno del servidor al iniciar sesión.")
	}

	return c.JSON(fiber.Map{
		"message": "Inicio de sesión correcto.",
		"token":   token,
	})
}
