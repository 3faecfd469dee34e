package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func newTestMiddleware(opts ...Option) Middleware {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(l, opts...)
}

func TestSessionMiddleware(t *testing.T) {
	m := newTestMiddleware()
	app := fiber.New()
	app.Get("/", m.NewSessionMiddleware, func(c *fiber.Ctx) error {
		return c.SendString(m.GetSessionID(c))
	})

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"header", "/", "abc", "abc"},
		{"query", "/?session=ws-1", "", "ws-1"},
		{"header wins over query", "/?session=ws-1", "abc", "abc"},
		{"falls back to ip", "/", "", "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(SessionIDKey, tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.want {
				t.Fatalf("got session %q, want %q", body, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	m := newTestMiddleware()
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 26 || resp.Header.Get(RequestIDKey) != string(body) {
		t.Fatalf("expected a generated ULID echoed in the header, got %q / %q", body, resp.Header.Get(RequestIDKey))
	}

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "given")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "given" {
		t.Fatalf("incoming request id must be kept, got %q", body)
	}
}

func TestRateLimiter(t *testing.T) {
	m := newTestMiddleware(WithRateLimit(0.001, 2))
	app := fiber.New()
	app.Get("/", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		codes = append(codes, resp.StatusCode)
	}

	if codes[0] != fiber.StatusNoContent || codes[1] != fiber.StatusNoContent || codes[2] != fiber.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestDescribeRequestBody(t *testing.T) {
	if got := describeRequestBody("multipart/form-data; boundary=x", []byte("12345")); got != "[multipart body, 5 bytes]" {
		t.Fatalf("got %q", got)
	}
	if got := describeRequestBody("text/plain", []byte("hello")); got != "[non-JSON body]" {
		t.Fatalf("got %q", got)
	}
	got := describeRequestBody("application/json", []byte(`{"image_base64":"AAAA","name":"x"}`))
	if strings.Contains(got, "AAAA") || !strings.Contains(got, `"name":"x"`) {
		t.Fatalf("image payload must be redacted, got %q", got)
	}
}
