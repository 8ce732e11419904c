package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRequestIDIsAssignedAndEchoed(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	var seen string
	app.Get("/ping", func(c *fiber.Ctx) error {
		seen = RequestIDFrom(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ping", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if seen == "" || resp.Header.Get(requestIDHeader) != seen {
		t.Fatalf("expected generated id to be echoed, got %q and %q", seen, resp.Header.Get(requestIDHeader))
	}

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "client-id")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if seen != "client-id" || resp.Header.Get(requestIDHeader) != "client-id" {
		t.Fatalf("expected client id to be kept, got %q", seen)
	}
}
