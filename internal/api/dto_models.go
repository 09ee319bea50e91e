package api

import "craftresume-backend-go/internal/models"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message
	Details string `json:"details,omitempty"` // The underlying cause, if it is safe to show
	Notice  string `json:"notice,omitempty"`  // Toast text for the client, e.g. "Something went wrong!"
}

// MessageResponse carries a user notice for requests without a body of their own.
type MessageResponse struct {
	Notice string `json:"notice"` // e.g. "Template deleted!"
}

// TemplateResponse is returned by POST /templates. Template carries the
// assigned id, sequential name and server timestamp.
type TemplateResponse struct {
	Template *models.Template `json:"template"`
	Notice   string           `json:"notice"`
}

// UploadResponse wraps an upload snapshot with an optional notice.
// The snapshot fields are inlined so clients poll a flat object.
type UploadResponse struct {
	models.UploadState
	Notice string `json:"notice,omitempty"` // Set once the upload finished or failed
}

// NextNameResponse is returned by GET /templates/next-name.
type NextNameResponse struct {
	Name string `json:"name"` // "template" followed by the live template count plus one
}

// TagsResponse is returned by GET /templates/tags.
type TagsResponse struct {
	Tags []string `json:"tags"` // The configured job-title tags, in display order
}
