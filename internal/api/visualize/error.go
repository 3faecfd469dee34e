package visualize

import (
	"DetectionViewer/pkg/response"
	"net/http"
)

var (
	ErrValidation      = response.NewError(http.StatusBadRequest, "no file selected")
	ErrInvalidUpload   = response.NewError(http.StatusBadRequest, "invalid image upload")
	ErrTransport       = response.NewError(http.StatusBadGateway, "request error")
	ErrProcessing      = response.NewError(http.StatusUnprocessableEntity, "processing failed")
	ErrStaleSubmission = response.NewError(http.StatusConflict, "submission superseded by a newer one")
	ErrImageLoad       = response.NewError(http.StatusBadRequest, "uploaded image could not be loaded")
	ErrRender          = response.NewError(http.StatusInternalServerError, "failed to render overlay")
	ErrRequestTimeout  = response.NewError(http.StatusRequestTimeout, "request timed out")
)
