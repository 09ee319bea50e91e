package models

// UploadStatus is the externally visible phase of one upload attempt.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadUploaded  UploadStatus = "uploaded"
	UploadFailed    UploadStatus = "error"
)

// UploadErrorKind distinguishes revoked authorization from other remote failures.
type UploadErrorKind string

const (
	UploadErrorAuthorization UploadErrorKind = "authorization"
	UploadErrorRemote        UploadErrorKind = "remote"
)

// UploadState is a snapshot of a template image upload.
type UploadState struct {
	ID        string          `json:"id"`
	FileName  string          `json:"fileName"`
	Status    UploadStatus    `json:"status"`
	Progress  float64         `json:"progress"` // 0-100
	URI       string          `json:"uri,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind UploadErrorKind `json:"errorKind,omitempty"`
}
