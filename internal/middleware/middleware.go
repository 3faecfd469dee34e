package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewSessionMiddleware(ctx *fiber.Ctx) error
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
	GetSessionID(ctx *fiber.Ctx) string
}

type middleware struct {
	rateLimitter        *rateLimiter
	loggingMiddleware   *loggingMiddleware
	requestIDMiddleware fiber.Handler
	log                 *logrus.Logger
}

type Option func(*options)

type options struct {
	rate  rate.Limit
	burst int
}

// WithRateLimit sets the per-IP request rate and burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(o *options) {
		if r > 0 {
			o.rate = r
		}
		if burst > 0 {
			o.burst = burst
		}
	}
}

func New(logger *logrus.Logger, opts ...Option) Middleware {
	o := options{rate: 50, burst: 100}
	for _, opt := range opts {
		opt(&o)
	}

	rateLimit := newRateLimiter(o.rate, o.burst)
	logging := newLoggingMiddleware(logger)
	requestID := NewRequestIDMiddleware()

	return &middleware{
		rateLimitter:        rateLimit,
		loggingMiddleware:   logging,
		requestIDMiddleware: requestID,
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
