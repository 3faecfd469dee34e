package visualize

import (
	"image"
	"strconv"
	"time"

	"DetectionViewer/internal/entity"
	"DetectionViewer/pkg/detail"
	"DetectionViewer/pkg/imageload"
)

// Upload is the file selected for a submission.
type Upload struct {
	Name string
	Data []byte
}

func (u *Upload) Selected() bool {
	return u != nil && len(u.Data) > 0
}

type RenderOptions struct {
	Display        imageload.Display
	ScaleToDisplay bool
}

// Outcome is what one successful submission produced.
type Outcome struct {
	Generation uint64
	Results    []entity.ResultModel
	Details    detail.Fragment
	Annotated  *image.RGBA
	Width      int
	Height     int
}

type VisualizeRequest struct {
	DisplayWidth   int    `form:"display_width" validate:"omitempty,min=1,max=8192"`
	DisplayHeight  int    `form:"display_height" validate:"omitempty,min=1,max=8192"`
	ScaleToDisplay string `form:"scale_to_display" validate:"omitempty,oneof=true false 1 0"`
}

// Options resolves the request against the server defaults.
func (r VisualizeRequest) Options(defaults RenderOptions) RenderOptions {
	opts := defaults
	if r.DisplayWidth > 0 || r.DisplayHeight > 0 {
		opts.Display.Width = r.DisplayWidth
		opts.Display.Height = r.DisplayHeight
	}
	if r.ScaleToDisplay != "" {
		opts.ScaleToDisplay, _ = strconv.ParseBool(r.ScaleToDisplay)
	}
	return opts
}

type VisualizeResponse struct {
	Session        string               `json:"session"`
	Generation     uint64               `json:"generation"`
	Results        []entity.ResultModel `json:"results"`
	Details        []string             `json:"details"`
	DetailsHTML    string               `json:"details_html"`
	Width          int                  `json:"width"`
	Height         int                  `json:"height"`
	ImagePNGBase64 string               `json:"image_png_base64,omitempty"`
}

type State string

const (
	StateIdle              State = "idle"
	StateValidating        State = "validating"
	StateUploading         State = "uploading"
	StateAwaitingImageLoad State = "awaiting_image_load"
	StateRendering         State = "rendering"
	StateError             State = "error"
)

// UploadState is the per-session view of the current submission.
type UploadState struct {
	Generation  uint64 `json:"generation"`
	HasFile     bool   `json:"has_file"`
	IsLoading   bool   `json:"is_loading"`
	HasResults  bool   `json:"has_results"`
	State       State  `json:"state"`
	LastMessage string `json:"last_message,omitempty"`
}

type StateEvent struct {
	Session    string    `json:"session"`
	Generation uint64    `json:"generation"`
	State      State     `json:"state"`
	Loading    bool      `json:"loading"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
