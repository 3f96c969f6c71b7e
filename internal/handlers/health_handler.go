package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	serviceName    = "Resume Parser API"
	serviceVersion = "1.0.0"
)

func HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": serviceName,
		"version": serviceVersion,
		"endpoints": []string{
			"POST /api/users/upload",
			"GET /api/users/me?clerk_id=",
			"PATCH /api/users/:clerk_id",
			"DELETE /api/users/:clerk_id",
			"GET /api/users/search?q=",
			"GET /api/users/:clerk_id/uploads",
		},
	})
}

func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// ErrorHandler renders every error as {"error": msg, "code": status}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", code).Msg("Request failed")
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
