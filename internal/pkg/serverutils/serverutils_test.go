package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"ragchat-be/internal/pkg/apperror"
	"ragchat-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", JwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		userId, err := UserId(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("ok", userId.String()))
	})
	return app
}

func TestJwtMiddleware(t *testing.T) {
	userId := "5b7f3c1e-0a64-4d0e-9c4b-1f1c2a9b8e77"
	valid := signToken(t, testSecret, jwt.MapClaims{"user_id": userId, "exp": time.Now().Add(time.Hour).Unix()})
	wrongKey := signToken(t, "other", jwt.MapClaims{"user_id": userId})
	noUser := signToken(t, testSecret, jwt.MapClaims{"role": "user"})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, fiber.StatusUnauthorized},
		{"missing user claim", "Bearer " + noUser, fiber.StatusUnauthorized},
		{"valid", "Bearer " + valid, fiber.StatusOK},
	}

	app := newProtectedApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				var decoded Response[string]
				require.NoError(t, json.Unmarshal(body, &decoded))
				assert.Equal(t, userId, decoded.Data)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("load: %w", apperror.NotFound("chat")), fiber.StatusNotFound},
		{"invalid operation", apperror.InvalidOperation("nope"), fiber.StatusBadRequest},
		{"ingestion", apperror.NewIngestionError(errors.New("db down")), fiber.StatusBadGateway},
		{"retrieval", apperror.NewRetrievalError(errors.New("db down")), fiber.StatusBadGateway},
		{"overloaded", fmt.Errorf("gemini: %w", llm.ErrProviderOverloaded), fiber.StatusServiceUnavailable},
		{"fiber error", fiber.NewError(fiber.StatusConflict, "conflict"), fiber.StatusConflict},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

type createRequest struct {
	Title string `json:"title" validate:"required,max=5"`
}

func TestErrorHandlerRendersValidationErrors(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Post("/", func(ctx *fiber.Ctx) error {
		return ValidateRequest(createRequest{Title: "too long title"})
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var decoded ErrorBody
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "must be at most 5", decoded.Errors["Title"])
}
