package config

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DetectionViewer/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv(NewValidator(), lookupFrom(nil))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.AppPort != "3000" || cfg.DetectorBaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DetectorTimeout != 30*time.Second || cfg.UploadMaxBytes != 16*1024*1024 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.UploadMaxPixels != 40_000_000 {
		t.Fatalf("unexpected pixel limit %d", cfg.UploadMaxPixels)
	}
	if cfg.OverlayScaleToDisplay || cfg.OverlayDisplayMaxWidth != 0 {
		t.Fatalf("overlay scaling must be off by default, got %+v", cfg)
	}
}

func TestConfigFromEnv(t *testing.T) {
	cfg, err := ConfigFromEnv(NewValidator(), lookupFrom(map[string]string{
		"APP_PORT":                  "8080",
		"APP_ENV":                   "production",
		"DETECTOR_BASE_URL":         "http://detector:5000/",
		"DETECTOR_TIMEOUT":          "5",
		"OVERLAY_DISPLAY_MAX_WIDTH": "800",
		"OVERLAY_SCALE_TO_DISPLAY":  "true",
		"SESSION_IDLE_TIMEOUT":      "10m",
		"UPLOAD_MAX_PIXELS":         "1000000",
		"LOG_SUPPRESS":              "deprecated, ,font cache",
	}))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DetectorBaseURL != "http://detector:5000" {
		t.Fatalf("trailing slash must be trimmed, got %q", cfg.DetectorBaseURL)
	}
	if cfg.DetectorTimeout != 5*time.Second || cfg.SessionIdle != 10*time.Minute {
		t.Fatalf("unexpected durations %v %v", cfg.DetectorTimeout, cfg.SessionIdle)
	}
	if !cfg.OverlayScaleToDisplay || cfg.OverlayDisplayMaxWidth != 800 {
		t.Fatalf("unexpected overlay settings %+v", cfg)
	}
	if cfg.UploadMaxPixels != 1_000_000 {
		t.Fatalf("unexpected pixel limit %d", cfg.UploadMaxPixels)
	}
	if len(cfg.LogSuppress) != 2 || cfg.LogSuppress[0] != "deprecated" || cfg.LogSuppress[1] != "font cache" {
		t.Fatalf("unexpected suppress list %q", cfg.LogSuppress)
	}
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unparseable timeout", map[string]string{"DETECTOR_TIMEOUT": "soon"}, "DETECTOR_TIMEOUT"},
		{"bad url", map[string]string{"DETECTOR_BASE_URL": "not a url"}, "DETECTOR_BASE_URL"},
		{"negative upload limit", map[string]string{"UPLOAD_MAX_BYTES": "-1"}, "UPLOAD_MAX_BYTES"},
		{"zero pixel limit", map[string]string{"UPLOAD_MAX_PIXELS": "0"}, "UPLOAD_MAX_PIXELS"},
		{"unknown env", map[string]string{"APP_ENV": "staging"}, "APP_ENV"},
		{"bad bool", map[string]string{"OVERLAY_SCALE_TO_DISPLAY": "maybe"}, "OVERLAY_SCALE_TO_DISPLAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConfigFromEnv(NewValidator(), lookupFrom(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error naming %s, got %v", tt.want, err)
			}
		})
	}
}

type stubDetector struct {
	healthErr error
}

func (s stubDetector) Detect(ctx context.Context, filename string, data []byte) (*entity.DetectResponse, error) {
	return &entity.DetectResponse{Status: entity.DetectStatusSuccess}, nil
}

func (s stubDetector) CheckHealth(ctx context.Context) error { return s.healthErr }

func newTestServer(t *testing.T, d stubDetector) *Server {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	cfg, err := ConfigFromEnv(NewValidator(), lookupFrom(nil))
	if err != nil {
		t.Fatal(err)
	}

	srv, err := NewServer(
		WithFiber(NewFiber(l, cfg)),
		WithConfig(cfg),
		WithLogger(l),
		WithValidator(NewValidator()),
		WithMiddleware(),
		WithUtils(),
		WithDetector(d),
		WithVisualizeService(),
	)
	if err != nil {
		t.Fatal(err)
	}
	srv.RegisterHandler()
	srv.mount()
	return srv
}

func TestHealthCheckReportsDetector(t *testing.T) {
	srv := newTestServer(t, stubDetector{healthErr: errors.New("detector unhealthy: 503")})

	resp, err := srv.engine.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(body), "detector unhealthy: 503") {
		t.Fatalf("got %d %s", resp.StatusCode, body)
	}
}

func TestServerRoutesVisualize(t *testing.T) {
	srv := newTestServer(t, stubDetector{})

	resp, err := srv.engine.Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/visualize", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("a submission without a file must be rejected, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("request id middleware must be mounted")
	}
}

func TestNewServerRequiresConfig(t *testing.T) {
	if _, err := NewServer(WithFiber(fiber.New()), WithLogger(logrus.New())); err == nil {
		t.Fatal("expected an error without config")
	}
}

func TestShutdownStopsPruningWithoutRun(t *testing.T) {
	srv := newTestServer(t, stubDetector{})
	if srv.pruneCtx.Err() != nil {
		t.Fatal("pruning must be armed once the server is built")
	}

	_ = srv.Shutdown(time.Second)

	select {
	case <-srv.pruneCtx.Done():
	default:
		t.Fatal("shutdown must stop session pruning")
	}
}
