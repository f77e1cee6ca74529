package httpapi

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"skiclub/internal/auth"
	"skiclub/models"
)

// problem writes an RFC 7807 application/problem+json response.
func problem(c *fiber.Ctx, status int, title string, err error) error {
	if err != nil && status >= fiber.StatusInternalServerError {
		log.Printf("http %s %s: %v", c.Method(), c.OriginalURL(), err)
	}
	if title == "" {
		title = fiber.ErrInternalServerError.Message
	}
	body := fiber.Map{
		"type":     problemType(status),
		"title":    title,
		"status":   status,
		"instance": c.OriginalURL(),
	}
	if err != nil && status < fiber.StatusInternalServerError {
		body["detail"] = err.Error()
	}
	c.Status(status)
	if err := c.JSON(body); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return nil
}

// fail maps a service error onto its HTTP status.
func fail(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.Is(err, models.ErrValidation):
		return problem(c, fiber.StatusBadRequest, "invalid request", err)
	case errors.Is(err, auth.ErrUnauthenticated):
		return problem(c, fiber.StatusUnauthorized, "sign in required", err)
	case errors.Is(err, models.ErrForbidden):
		return problem(c, fiber.StatusForbidden, "not allowed", err)
	case errors.Is(err, models.ErrNotFound):
		return problem(c, fiber.StatusNotFound, "not found", err)
	case errors.Is(err, models.ErrConflict):
		return problem(c, fiber.StatusConflict, "conflict", err)
	case errors.Is(err, models.ErrDisabled):
		return problem(c, fiber.StatusServiceUnavailable, "feature not configured", err)
	case errors.As(err, &fe):
		return problem(c, fe.Code, fe.Message, nil)
	}
	return problem(c, fiber.StatusInternalServerError, "", err)
}

func problemType(status int) string {
	code := "internal-error"
	switch status {
	case fiber.StatusBadRequest:
		code = "validation-error"
	case fiber.StatusUnauthorized:
		code = "unauthorized"
	case fiber.StatusForbidden:
		code = "forbidden"
	case fiber.StatusNotFound:
		code = "not-found"
	case fiber.StatusConflict:
		code = "conflict"
	case fiber.StatusTooManyRequests:
		code = "rate-limited"
	case fiber.StatusServiceUnavailable:
		code = "disabled"
	}
	return "urn:skiclub:problem:" + code
}
