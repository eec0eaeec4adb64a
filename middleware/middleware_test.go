package middleware

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"mailcast/config"
	"mailcast/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/me", ProtectedWithSecret(secret), func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(int(UserID(c))))
	})
	return app
}

func TestProtected(t *testing.T) {
	app := protectedApp("s3cret")
	valid, err := utils.GenerateJWTToken(7, "s3cret", time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateJWTToken(7, "other", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "bearer header", header: "Bearer " + valid, status: fiber.StatusOK},
		{name: "query token", query: "?token=" + valid, status: fiber.StatusOK},
		{name: "missing", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + valid, status: fiber.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + forged, status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(DefaultCORSConfig("https://app.mailcast.io")))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.mailcast.io")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.mailcast.io", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "3600", resp.Header.Get("Access-Control-Max-Age"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_AnyOrigin(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(DefaultCORSConfig()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestNewRateLimitStorage_DisabledUsesMemory(t *testing.T) {
	assert.Nil(t, NewRateLimitStorage(config.RedisConfig{Enabled: false}))
}

func TestTriggerRateLimiter(t *testing.T) {
	config.AppConfig.RateLimitTrigger = 2

	app := fiber.New()
	app.Post("/run", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(3))
		return c.Next()
	}, TriggerRateLimiter(nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/run", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusAccepted, fiber.StatusAccepted, fiber.StatusTooManyRequests}, codes)
}
