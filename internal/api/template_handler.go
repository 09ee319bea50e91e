package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftresume-backend-go/internal/core"
	"craftresume-backend-go/internal/middleware"
	"craftresume-backend-go/internal/models"
)

// TemplateHandler handles API endpoints related to templates.
type TemplateHandler struct {
	templates core.TemplateService // Business logic for template records and images
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(ts core.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: ts}
}

// ListTemplates handles GET /templates
// Responds with the query result envelope (data, isLoading, isError, notice).
// ?refetch=true skips the cached list and reloads it from Firestore.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var res core.Result[[]*models.Template]
	if c.Query("refetch") == "true" {
		res = h.templates.Refetch(c.Request.Context())
	} else {
		res = h.templates.List(c.Request.Context())
	}
	if res.Err != nil {
		writeError(c, res.Err, res.Notice)
		return
	}
	c.JSON(http.StatusOK, res)
}

// NextName handles GET /templates/next-name
// The name is a preview; the stored name is assigned when the record is written.
func (h *TemplateHandler) NextName(c *gin.Context) {
	name, err := h.templates.NextName(c.Request.Context())
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, NextNameResponse{Name: name})
}

// ListTags handles GET /templates/tags
func (h *TemplateHandler) ListTags(c *gin.Context) {
	c.JSON(http.StatusOK, TagsResponse{Tags: h.templates.Tags()})
}

// CreateTemplate handles POST /templates
// Admin only. The body names either a finished upload (uploadId) or an
// imageURL that already lives in the object store.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	// Title is required by the binding; tags and image are checked by the service.
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	// RequireAdmin ran before this handler, so the credential is set.
	actor := middleware.AuthStateFrom(c).Credential.UID
	tpl, err := h.templates.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, TemplateResponse{Template: tpl, Notice: core.NoticeTemplateSaved})
}

// DeleteTemplate handles DELETE /templates/:templateId
// Admin only. Removes the image and then the record; a failed image removal
// answers 502 and leaves the record hidden, so the request can be repeated.
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	templateID := c.Param("templateId")
	actor := middleware.AuthStateFrom(c).Credential.UID

	if err := h.templates.Delete(c.Request.Context(), actor, templateID); err != nil {
		writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Notice: core.NoticeTemplateDeleted})
}
