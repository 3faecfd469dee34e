package detector

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"DetectionViewer/internal/entity"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	DetectPath = "/api/detect"
	HealthPath = "/health"
	FileField  = "file"
)

var (
	ErrTransport   = errors.New("detector request failed")
	ErrBadResponse = errors.New("detector returned an unreadable body")
)

type IDetector interface {
	Detect(ctx context.Context, filename string, data []byte) (*entity.DetectResponse, error)
	CheckHealth(ctx context.Context) error
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type detectorClient struct {
	client *resty.Client
	log    *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) IDetector {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	client.JSONMarshal = jsoniter.Marshal
	client.JSONUnmarshal = jsoniter.Unmarshal

	return &detectorClient{
		client: client,
		log:    log,
	}
}

// Detect posts the image as multipart field "file". Any body that parses is
// returned as-is, whatever its status; the caller decides what "status"
// means. Connection failures and unreadable bodies wrap ErrTransport.
func (d *detectorClient) Detect(ctx context.Context, filename string, data []byte) (*entity.DetectResponse, error) {
	start := time.Now()

	resp, err := d.client.R().
		SetContext(ctx).
		SetFileReader(FileField, filename, bytes.NewReader(data)).
		Post(DetectPath)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"file_name": filename,
			"error":     err.Error(),
		}).Warn("Detector request failed")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	d.log.WithFields(logrus.Fields{
		"file_name":  filename,
		"status":     resp.StatusCode(),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("Detector responded")

	var out entity.DetectResponse
	if err := jsoniter.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: %w (http %d)", ErrTransport, ErrBadResponse, resp.StatusCode())
	}

	return &out, nil
}

func (d *detectorClient) CheckHealth(ctx context.Context) error {
	resp, err := d.client.R().SetContext(ctx).Get(HealthPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("detector unhealthy: %d", resp.StatusCode())
	}
	return nil
}
