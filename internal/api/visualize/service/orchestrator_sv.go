package visualizeService

import (
	"errors"

	"DetectionViewer/internal/api/visualize"
	"DetectionViewer/internal/entity"
	contextPkg "DetectionViewer/pkg/context"
	"DetectionViewer/pkg/detail"
	"DetectionViewer/pkg/log"
	"DetectionViewer/pkg/overlay"
	"DetectionViewer/pkg/response"

	"golang.org/x/net/context"
)

// Submit drives one submission through
// validating -> uploading -> awaiting image load -> rendering -> idle.
// Every accepted submission gets a new generation; once a newer one starts,
// the older one may still finish its network call but can no longer render
// and returns ErrStaleSubmission.
func (s *visualizeService) Submit(ctx context.Context, sessionID string, file *visualize.Upload, opts visualize.RenderOptions) (*visualize.Outcome, error) {
	sess := s.sessions.get(sessionID)
	ctx = contextPkg.WithSessionID(ctx, sessionID)
	logger := s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session":    sessionID,
	})

	sess.announce(visualize.StateValidating, "")
	if !file.Selected() {
		sess.announce(visualize.StateError, visualize.ErrValidation.Error())
		sess.settle()
		return nil, visualize.ErrValidation
	}

	gen := sess.begin()
	logger = logger.WithField("generation", gen)

	sess.setLoading(gen, true)
	resp, err := s.detector.Detect(ctx, file.Name, file.Data)
	sess.setLoading(gen, false)

	tagged := entity.Tag(gen, resp)

	if err != nil {
		logger.WithField("error", err.Error()).Warn("Detection request failed")
		if timedOut(ctx) {
			return nil, s.fail(sess, gen, response.Wrap(visualize.ErrRequestTimeout, err.Error()))
		}
		return nil, s.fail(sess, gen, response.Wrap(visualize.ErrTransport, err.Error()))
	}
	if !tagged.Payload.Succeeded() {
		logger.WithField("message", tagged.Payload.Message).Warn("Detector reported failure")
		return nil, s.fail(sess, gen, response.Wrap(visualize.ErrProcessing, tagged.Payload.Message))
	}
	if !sess.current(tagged.Generation) {
		logger.Info("Discarding stale detection response")
		return nil, visualize.ErrStaleSubmission
	}

	results := tagged.Payload.Results
	sess.transition(gen, visualize.StateAwaitingImageLoad, "")

	if timedOut(ctx) {
		return nil, s.fail(sess, gen, response.Wrap(visualize.ErrRequestTimeout, "before image load"))
	}
	element, err := s.loader.Load(ctx, file.Data, opts.Display)
	if err != nil {
		if timedOut(ctx) {
			logger.Warn("Request deadline passed while loading the image")
			return nil, s.fail(sess, gen, response.Wrap(visualize.ErrRequestTimeout, err.Error()))
		}
		logger.WithField("error", err.Error()).Warn("Uploaded image could not be loaded")
		return nil, s.fail(sess, gen, response.Wrap(visualize.ErrImageLoad, err.Error()))
	}
	if !sess.current(gen) {
		logger.Info("Discarding stale submission after image load")
		return nil, visualize.ErrStaleSubmission
	}

	sess.transition(gen, visualize.StateRendering, "")

	face, err := overlay.NewLabelFace(s.fontSize)
	if err != nil {
		return nil, s.fail(sess, gen, response.Wrap(visualize.ErrRender, err.Error()))
	}
	canvas := overlay.NewCanvas(face)
	if err := s.renderer.RenderScaled(canvas, element, results, opts.ScaleToDisplay); err != nil {
		return nil, s.fail(sess, gen, response.Wrap(visualize.ErrRender, err.Error()))
	}

	width, height := element.DisplaySize()
	outcome := &visualize.Outcome{
		Generation: gen,
		Results:    results,
		Details:    detail.Render(results),
		Annotated:  overlay.Composite(element.Image, canvas.Image()),
		Width:      width,
		Height:     height,
	}

	if !sess.complete(gen) {
		return nil, visualize.ErrStaleSubmission
	}

	logger.WithField("results", len(results)).Info("Submission rendered")
	return outcome, nil
}

// fail surfaces err for gen and returns the session to idle. A superseded
// generation leaves the session alone.
func (s *visualizeService) fail(sess *session, gen uint64, err error) error {
	if sess.transition(gen, visualize.StateError, err.Error()) {
		sess.transition(gen, visualize.StateIdle, "")
	}
	return err
}

func timedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}
