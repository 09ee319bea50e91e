package core

import "errors"

// Errors returned by the core services. Callers match them with errors.Is.
var (
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrValidation       = errors.New("validation failed")
	ErrForbidden        = errors.New("user is not allowed to manage templates")
	ErrAuthorization    = errors.New("object store authorization revoked")
	ErrTemplateNotFound = errors.New("template not found")
	ErrUploadNotFound   = errors.New("upload not found")
	ErrUploadInProgress = errors.New("upload still in progress")
)

// User-facing notices.
const (
	NoticeGeneric              = "Something went wrong!"
	NoticeInvalidFormat        = "Invalid format. Please select file with '.jpg, .jpeg, .png' extension."
	NoticeImageUploaded        = "Image uploaded successfully!"
	NoticeAuthorizationRevoked = "Error : Authorization Revoked"
	NoticeTemplateSaved        = "Template pushed to the cloud successfully!"
	NoticeTemplateDeleted      = "Template deleted successfully!"
)

// RemoteNotice formats a failure reported by a managed service.
func RemoteNotice(err error) string {
	return "Error: " + err.Error()
}
