package models

// CreateTemplateRequest is the body of POST /api/v1/templates.
// Exactly one of ImageURL or UploadID identifies the uploaded image.
type CreateTemplateRequest struct {
	Title    string   `json:"title" binding:"required"`
	Tags     []string `json:"tags"`
	ImageURL string   `json:"imageURL,omitempty"`
	UploadID string   `json:"uploadId,omitempty"`
}
