package config

import (
	"fmt"
	"time"

	"DetectionViewer/internal/api/visualize"
	visualizeHandler "DetectionViewer/internal/api/visualize/handler"
	visualizeService "DetectionViewer/internal/api/visualize/service"
	"DetectionViewer/internal/middleware"
	"DetectionViewer/pkg/detector"
	"DetectionViewer/pkg/imageload"
	"DetectionViewer/pkg/overlay"
	"DetectionViewer/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	cfg              *Config
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	detector         detector.IDetector
	visualizeService visualizeService.IVisualizeService
	handlers         []handler
	pruneCtx         context.Context
	stopPrune        context.CancelFunc
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Created here so Shutdown never races Run over the cancel func.
	server.pruneCtx, server.stopPrune = context.WithCancel(context.Background())

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.WithRateLimit(s.cfg.RateLimit, s.cfg.RateLimitBurst))
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		if s.cfg == nil {
			return fmt.Errorf("config must be initialized before utils")
		}
		s.utils = utils.New(utils.WithMaxFileSize(s.cfg.UploadMaxBytes))
		return nil
	}
}

// WithDetector uses d when given, otherwise an HTTP client for the
// configured detection backend.
func WithDetector(d detector.IDetector) ServerOption {
	return func(s *Server) error {
		if d != nil {
			s.detector = d
			return nil
		}
		if s.cfg == nil || s.log == nil {
			return fmt.Errorf("config and logger must be initialized before detector")
		}
		s.detector = detector.New(detector.Config{
			BaseURL: s.cfg.DetectorBaseURL,
			Timeout: s.cfg.DetectorTimeout,
		}, s.log)
		return nil
	}
}

func WithVisualizeService() ServerOption {
	return func(s *Server) error {
		if s.detector == nil {
			return fmt.Errorf("detector must be initialized before visualize service")
		}

		display := imageload.Display{MaxWidth: s.cfg.OverlayDisplayMaxWidth}
		s.visualizeService = visualizeService.NewVisualizeService(
			s.log,
			s.detector,
			imageload.New(display, imageload.WithMaxPixels(s.cfg.UploadMaxPixels)),
			overlay.NewRenderer(
				overlay.WithLogger(s.log),
				overlay.WithScaleToDisplay(s.cfg.OverlayScaleToDisplay),
			),
			visualize.RenderOptions{
				Display:        display,
				ScaleToDisplay: s.cfg.OverlayScaleToDisplay,
			},
		)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Visualize Domain
	visualizeHandlers := visualizeHandler.New(s.log, s.validator, s.middleware, s.visualizeService, s.utils, s.cfg.DetectorTimeout+15*time.Second)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, visualizeHandlers)
}

func (s *Server) Run() error {
	s.mount()

	go s.pruneSessions(s.pruneCtx)

	if err := s.engine.Listen(fmt.Sprintf(":%s", s.cfg.AppPort)); err != nil {
		s.stopPrune()
		return err
	}

	return nil
}

func (s *Server) mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.stopPrune()
	return s.engine.ShutdownWithTimeout(timeout)
}

func (s *Server) pruneSessions(ctx context.Context) {
	interval := s.cfg.SessionIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.visualizeService.PruneSessions(s.cfg.SessionIdle); removed > 0 {
				s.log.WithField("removed", removed).Debug("Pruned idle upload sessions")
			}
		}
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		detectorStatus := "ok"
		if err := s.detector.CheckHealth(c); err != nil {
			detectorStatus = err.Error()
		}

		return ctx.JSON(fiber.Map{
			"message":  "Server is Healthy!",
			"detector": detectorStatus,
		})
	})
}

func (s *Server) CheckDetector(ctx context.Context) error {
	return s.detector.CheckHealth(ctx)
}
