package visualizeService

import (
	"time"

	"DetectionViewer/internal/api/visualize"
	"DetectionViewer/pkg/detector"
	"DetectionViewer/pkg/imageload"
	"DetectionViewer/pkg/overlay"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IVisualizeService interface {
	Submit(ctx context.Context, sessionID string, file *visualize.Upload, opts visualize.RenderOptions) (*visualize.Outcome, error)
	State(sessionID string) visualize.UploadState
	Subscribe(sessionID string) (<-chan visualize.StateEvent, func())
	Defaults() visualize.RenderOptions
	PruneSessions(maxIdle time.Duration) int
}

type visualizeService struct {
	log      *logrus.Logger
	detector detector.IDetector
	loader   *imageload.Loader
	renderer *overlay.Renderer
	fontSize float64
	defaults visualize.RenderOptions
	sessions *registry
}

func NewVisualizeService(
	log *logrus.Logger,
	detector detector.IDetector,
	loader *imageload.Loader,
	renderer *overlay.Renderer,
	defaults visualize.RenderOptions,
) IVisualizeService {
	return &visualizeService{
		log:      log,
		detector: detector,
		loader:   loader,
		renderer: renderer,
		fontSize: overlay.DefaultFontSize,
		defaults: defaults,
		sessions: newRegistry(),
	}
}

func (s *visualizeService) State(sessionID string) visualize.UploadState {
	return s.sessions.get(sessionID).snapshot()
}

func (s *visualizeService) Subscribe(sessionID string) (<-chan visualize.StateEvent, func()) {
	return s.sessions.get(sessionID).subscribe()
}

func (s *visualizeService) Defaults() visualize.RenderOptions {
	return s.defaults
}

func (s *visualizeService) PruneSessions(maxIdle time.Duration) int {
	return s.sessions.prune(maxIdle)
}
