package face

import (
	"FaceDetect/pkg/response"
	"net/http"
)

var (
	ErrInvalidImage      = response.NewError(http.StatusBadRequest, "invalid image data")
	ErrInvalidBase64     = response.NewError(http.StatusBadRequest, "invalid base64 image data")
	ErrFileNotImage      = response.NewError(http.StatusBadRequest, "file must be an image")
	ErrMissingImage      = response.NewError(http.StatusBadRequest, "no image provided")
	ErrFileTooLarge      = response.NewError(http.StatusRequestEntityTooLarge, "file too large")
	ErrDetectionNotFound = response.NewError(http.StatusNotFound, "detection not found")
	ErrStoreUpload       = response.NewError(http.StatusInternalServerError, "failed to store uploaded image")
	ErrHistoryDisabled   = response.NewError(http.StatusServiceUnavailable, "detection history is not configured")
)
