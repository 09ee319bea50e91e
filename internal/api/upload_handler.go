package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftresume-backend-go/internal/core"
	"craftresume-backend-go/internal/models"
)

// UploadHandler handles template image uploads.
type UploadHandler struct {
	uploads core.UploadService // Runs uploads in the background and tracks their progress
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(us core.UploadService) *UploadHandler {
	return &UploadHandler{uploads: us}
}

// StartUpload handles POST /uploads with the image in the multipart field "file".
// Admin only. Answers 202 with the new session; clients poll GetUpload until
// the status is "uploaded" or "error".
func (h *UploadHandler) StartUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Multipart field 'file' is required", Details: err.Error()})
		return
	}
	// The service copies the body before returning, so closing here is safe.
	f, err := fh.Open()
	if err != nil {
		writeError(c, err, "")
		return
	}
	defer f.Close()

	state, err := h.uploads.Start(c.Request.Context(), core.FileInput{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusAccepted, UploadResponse{UploadState: state})
}

// GetUpload handles GET /uploads/:uploadId
// Responds with the session snapshot (status, progress, uri once uploaded).
func (h *UploadHandler) GetUpload(c *gin.Context) {
	state, err := h.uploads.Get(c.Request.Context(), c.Param("uploadId"))
	if err != nil {
		writeError(c, err, "")
		return
	}

	// Terminal states carry the toast text the client shows.
	resp := UploadResponse{UploadState: state}
	switch state.Status {
	case models.UploadUploaded:
		resp.Notice = core.NoticeImageUploaded
	case models.UploadFailed:
		resp.Notice = state.Error
	}
	c.JSON(http.StatusOK, resp)
}

// DiscardUpload handles DELETE /uploads/:uploadId
// Forgets the session and deletes its object when one was stored.
func (h *UploadHandler) DiscardUpload(c *gin.Context) {
	if err := h.uploads.Discard(c.Request.Context(), c.Param("uploadId")); err != nil {
		writeError(c, err, "")
		return
	}
	c.Status(http.StatusNoContent)
}
