package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

type Config struct {
	AppPort string `env:"APP_PORT" validate:"required,numeric"`
	AppEnv  string `env:"APP_ENV" validate:"omitempty,oneof=development production test"`

	DetectorBaseURL string        `env:"DETECTOR_BASE_URL" validate:"required,url"`
	DetectorTimeout time.Duration `env:"DETECTOR_TIMEOUT" validate:"gt=0"`

	OverlayDisplayMaxWidth int  `env:"OVERLAY_DISPLAY_MAX_WIDTH" validate:"gte=0"`
	OverlayScaleToDisplay  bool `env:"OVERLAY_SCALE_TO_DISPLAY"`

	UploadMaxBytes  int64 `env:"UPLOAD_MAX_BYTES" validate:"gt=0"`
	UploadMaxPixels int64 `env:"UPLOAD_MAX_PIXELS" validate:"gt=0"`

	RateLimit      rate.Limit    `env:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" validate:"gt=0"`
	SessionIdle    time.Duration `env:"SESSION_IDLE_TIMEOUT" validate:"gt=0"`

	LogSuppress []string `env:"LOG_SUPPRESS"`
}

func defaultConfig() Config {
	return Config{
		AppPort:         "3000",
		AppEnv:          "development",
		DetectorBaseURL: "http://localhost:5000",
		DetectorTimeout: 30 * time.Second,
		UploadMaxBytes:  16 * 1024 * 1024,
		UploadMaxPixels: 40_000_000,
		RateLimit:       50,
		RateLimitBurst:  100,
		SessionIdle:     30 * time.Minute,
	}
}

// LoadConfig reads .env (when present) into the process environment and
// builds a validated Config from it.
func LoadConfig(validate *validator.Validate, files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return ConfigFromEnv(validate, os.LookupEnv)
}

func ConfigFromEnv(validate *validator.Validate, lookup func(string) (string, bool)) (*Config, error) {
	cfg := defaultConfig()
	p := envParser{lookup: lookup}

	p.str("APP_PORT", &cfg.AppPort)
	p.str("APP_ENV", &cfg.AppEnv)
	p.str("DETECTOR_BASE_URL", &cfg.DetectorBaseURL)
	p.duration("DETECTOR_TIMEOUT", &cfg.DetectorTimeout)
	p.integer("OVERLAY_DISPLAY_MAX_WIDTH", &cfg.OverlayDisplayMaxWidth)
	p.boolean("OVERLAY_SCALE_TO_DISPLAY", &cfg.OverlayScaleToDisplay)
	p.int64("UPLOAD_MAX_BYTES", &cfg.UploadMaxBytes)
	p.int64("UPLOAD_MAX_PIXELS", &cfg.UploadMaxPixels)
	p.limit("RATE_LIMIT_RPS", &cfg.RateLimit)
	p.integer("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	p.duration("SESSION_IDLE_TIMEOUT", &cfg.SessionIdle)
	p.list("LOG_SUPPRESS", &cfg.LogSuppress)

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	cfg.DetectorBaseURL = strings.TrimRight(cfg.DetectorBaseURL, "/")
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

type envParser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *envParser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *envParser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *envParser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *envParser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}

func (p *envParser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *envParser) int64(key string, dst *int64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *envParser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

func (p *envParser) limit(key string, dst *rate.Limit) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = rate.Limit(f)
}

func (p *envParser) list(key string, dst *[]string) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
