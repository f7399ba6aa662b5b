package handlers

import (
	"errors"
	"log"

	"nutrifit/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an application error to the HTTP status it is answered with.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Storage failures are logged and
// answered with fallback so internal details never reach the client.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": apperror.Message(err, fallback),
	})
}

// ErrorHandler is the fiber.Config ErrorHandler. It answers errors that escape
// the handlers (unknown routes, oversized bodies, panics caught by recover) with
// the same {"error": message} shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message := fiberErr.Message
		if fiberErr.Code == fiber.StatusNotFound {
			message = "Ruta no encontrada."
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": message})
	}
	return respondError(c, err, "Error interno del servidor.")
}
