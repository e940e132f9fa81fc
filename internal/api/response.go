package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/storage"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(envelope{Success: true, Message: message, Data: data})
}

func failure(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(envelope{Success: false, Message: message})
}

// storeError maps repository errors to responses.
func (s *Server) storeError(c *fiber.Ctx, what string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return failure(c, fiber.StatusNotFound, what+" not found")
	}
	s.logger.Error("storage failure", zap.String("path", c.Path()), zap.Error(err))
	return failure(c, fiber.StatusInternalServerError, "internal error")
}

// errorHandler answers errors escaping handlers with the standard envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	message := err.Error()
	if message == "" {
		message = "internal error"
	}
	return failure(c, code, message)
}
