package serverutils

import (
	"errors"
	"log"

	"ragchat-be/internal/pkg/apperror"
	"ragchat-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
			body.Errors = validationErr.Fields
			return ctx.Status(fiber.StatusBadRequest).JSON(body)
		}

		status, message := StatusFor(err)
		if status >= fiber.StatusInternalServerError {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}

// StatusFor maps an error to an HTTP status and a client-safe message.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case apperror.IsNotFound(err):
		return fiber.StatusNotFound, err.Error()
	case apperror.IsInvalidOperation(err):
		return fiber.StatusBadRequest, err.Error()
	case apperror.IsIngestion(err):
		return fiber.StatusBadGateway, "Failed to ingest document"
	case apperror.IsRetrieval(err):
		return fiber.StatusBadGateway, "Failed to search documents"
	case errors.Is(err, llm.ErrProviderOverloaded):
		return fiber.StatusServiceUnavailable, "AI provider is overloaded"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}
