package visualizeHandler

import (
	"encoding/base64"
	"errors"
	"strconv"

	"DetectionViewer/internal/api/visualize"
	contextPkg "DetectionViewer/pkg/context"
	"DetectionViewer/pkg/handlerUtil"
	"DetectionViewer/pkg/log"
	"DetectionViewer/pkg/overlay"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *VisualizeHandler) Visualize(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := h.middleware.GetSessionID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"session":    sessionID,
		"path":       ctx.Path(),
	}).Debug("Processing visualize request")

	outcome, err := h.submit(c, ctx, requestID, sessionID, errHandler)
	if outcome == nil {
		return err
	}

	png, err := overlay.EncodePNG(outcome.Annotated)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "encode_png")
	}

	detailsHTML, err := outcome.Details.HTML()
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "render_details")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"session":    sessionID,
			"generation": outcome.Generation,
			"results":    len(outcome.Results),
		}).Info("Visualization successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, visualize.VisualizeResponse{
			Session:        sessionID,
			Generation:     outcome.Generation,
			Results:        outcome.Results,
			Details:        outcome.Details.Lines(),
			DetailsHTML:    string(detailsHTML),
			Width:          outcome.Width,
			Height:         outcome.Height,
			ImagePNGBase64: base64.StdEncoding.EncodeToString(png),
		})
	}
}

// VisualizeImage answers with the annotated image itself. The generation and
// result count travel in response headers.
func (h *VisualizeHandler) VisualizeImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := h.middleware.GetSessionID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), h.requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	outcome, err := h.submit(c, ctx, requestID, sessionID, errHandler)
	if outcome == nil {
		return err
	}

	png, err := overlay.EncodePNG(outcome.Annotated)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "encode_png")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		ctx.Set(fiber.HeaderContentType, "image/png")
		ctx.Set("X-Generation", strconv.FormatUint(outcome.Generation, 10))
		ctx.Set("X-Result-Count", strconv.Itoa(len(outcome.Results)))
		return ctx.Status(fiber.StatusOK).Send(png)
	}
}

func (h *VisualizeHandler) GetState(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.visualizeService.State(h.middleware.GetSessionID(ctx)))
}

// submit reads the upload and runs it through the service. A nil outcome
// means the error response has already been written and err is what the
// handler should return.
func (h *VisualizeHandler) submit(
	c context.Context,
	ctx *fiber.Ctx,
	requestID string,
	sessionID string,
	errHandler *handlerUtil.ErrorHandler,
) (*visualize.Outcome, error) {
	var req visualize.VisualizeRequest
	if err := ctx.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return nil, errHandler.Handle(ctx, requestID, visualize.ErrInvalidUpload, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	var upload *visualize.Upload
	file, err := ctx.FormFile("file")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		if err := h.utils.ValidateImageFile(file); err != nil {
			return nil, errHandler.Handle(ctx, requestID, err, ctx.Path(), "validate_image_file")
		}

		data, err := h.utils.ReadFile(file)
		if err != nil {
			return nil, errHandler.Handle(ctx, requestID, visualize.ErrInvalidUpload, ctx.Path(), "read_file")
		}

		upload = &visualize.Upload{Name: file.Filename, Data: data}
	}

	outcome, err := h.visualizeService.Submit(c, sessionID, upload, req.Options(h.visualizeService.Defaults()))
	if errors.Is(err, visualize.ErrRequestTimeout) {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"session":    sessionID,
			"error":      err.Error(),
		}).Warn("Visualize request timed out")
		return nil, errHandler.HandleRequestTimeout(ctx)
	}
	if err != nil {
		return nil, errHandler.Handle(ctx, requestID, err, ctx.Path(), "submit")
	}

	return outcome, nil
}
