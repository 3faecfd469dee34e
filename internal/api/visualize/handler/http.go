package visualizeHandler

import (
	"time"

	visualizeService "DetectionViewer/internal/api/visualize/service"
	"DetectionViewer/internal/middleware"
	"DetectionViewer/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 60 * time.Second

type VisualizeHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	visualizeService visualizeService.IVisualizeService
	utils            utils.IUtils
	requestTimeout   time.Duration
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	vs visualizeService.IVisualizeService,
	utils utils.IUtils,
	requestTimeout time.Duration,
) *VisualizeHandler {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &VisualizeHandler{
		visualizeService: vs,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		utils:            utils,
		requestTimeout:   requestTimeout,
	}
}

func (h *VisualizeHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	visualize := srv.Group("/visualize", h.middleware.NewSessionMiddleware)
	visualize.Post("", h.middleware.NewRateLimiter, h.Visualize)
	visualize.Post("/image", h.middleware.NewRateLimiter, h.VisualizeImage)
	visualize.Get("/state", h.GetState)

	visualize.Use("/ws", wsMiddleware)
	visualize.Get("/ws", websocket.New(h.handleStateWebSocket))
}
