package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"craftresume-backend-go/internal/core"
	"craftresume-backend-go/internal/upload"
)

// writeError maps core errors to a status code and writes the error body.
// notice overrides the default user notice for the error.
func writeError(c *gin.Context, err error, notice string) {
	_ = c.Error(err)

	var status int
	resp := ErrorResponse{Details: err.Error()}
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		status = http.StatusUnauthorized
		resp = ErrorResponse{Error: core.ErrNotAuthenticated.Error()}
	case errors.Is(err, upload.ErrInvalidFileType):
		status = http.StatusBadRequest
		resp.Error = "Invalid file type"
		resp.Notice = core.NoticeInvalidFormat
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
		resp.Error = core.ErrValidation.Error()
		resp.Notice = err.Error()
	case errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
		resp.Error = core.ErrForbidden.Error()
	case errors.Is(err, core.ErrTemplateNotFound):
		status = http.StatusNotFound
		resp.Error = core.ErrTemplateNotFound.Error()
	case errors.Is(err, core.ErrUploadNotFound):
		status = http.StatusNotFound
		resp.Error = core.ErrUploadNotFound.Error()
	case errors.Is(err, core.ErrUploadInProgress):
		status = http.StatusConflict
		resp.Error = core.ErrUploadInProgress.Error()
	case errors.Is(err, core.ErrAuthorization):
		status = http.StatusBadGateway
		resp.Error = core.ErrAuthorization.Error()
		resp.Notice = core.NoticeAuthorizationRevoked
	default:
		status = http.StatusInternalServerError
		resp = ErrorResponse{Error: "An unexpected internal server error occurred.", Notice: core.RemoteNotice(err)}
	}

	if notice != "" {
		resp.Notice = notice
	}
	c.JSON(status, resp)
}
