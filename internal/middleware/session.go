package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const SessionIDKey = "X-Session-ID"

// NewSessionMiddleware resolves the upload session of a request. Clients
// that send no X-Session-ID header (or session query parameter, for
// websocket upgrades) share one session per IP.
func (m *middleware) NewSessionMiddleware(ctx *fiber.Ctx) error {
	sessionID := strings.TrimSpace(ctx.Get(SessionIDKey))
	if sessionID == "" {
		sessionID = strings.TrimSpace(ctx.Query("session"))
	}
	if sessionID == "" {
		sessionID = ctx.IP()
	}

	ctx.Locals(SessionIDKey, sessionID)
	return ctx.Next()
}

func (m *middleware) GetSessionID(ctx *fiber.Ctx) string {
	sessionID, ok := ctx.Locals(SessionIDKey).(string)
	if !ok || sessionID == "" {
		return ctx.IP()
	}
	return sessionID
}
