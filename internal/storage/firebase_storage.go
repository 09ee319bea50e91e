package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	firebaseDownloadHost = "firebasestorage.googleapis.com"
	downloadTokensKey    = "firebaseStorageDownloadTokens"
	resumableChunkSize   = 256 * 1024
)

// FirebaseStore stores objects in the app's Firebase Storage bucket.
type FirebaseStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
	logger     *zap.Logger
}

// NewFirebaseStore opens bucketName through the Firebase Admin SDK.
func NewFirebaseStore(ctx context.Context, app *firebase.App, bucketName string, logger *zap.Logger) (*FirebaseStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Storage: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %q: %w", bucketName, err)
	}
	logger.Info("Firebase Storage bucket ready", zap.String("bucket", bucketName))
	return &FirebaseStore{bucket: bucket, bucketName: bucketName, logger: logger}, nil
}

// Upload streams r with a resumable writer. The object gets a download token
// so the returned URL works like one obtained from the client SDK.
func (s *FirebaseStore) Upload(ctx context.Context, path, contentType string, r io.Reader, size int64, progress ProgressFunc) (string, error) {
	if progress == nil {
		progress = func(int64, int64) {}
	}
	token := uuid.NewString()

	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = resumableChunkSize
	w.Metadata = map[string]string{downloadTokensKey: token}
	w.ProgressFunc = func(written int64) { progress(written, size) }

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %q: %w", path, mapGCSError(err))
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %q: %w", path, mapGCSError(err))
	}
	progress(size, size)

	return FirebaseDownloadURL(s.bucketName, path, token), nil
}

// Delete removes the object behind a download URL or gs:// URL.
func (s *FirebaseStore) Delete(ctx context.Context, objectURL string) error {
	bucket, path, err := ParseFirebaseObjectURL(objectURL)
	if err != nil {
		return err
	}
	if bucket != s.bucketName {
		return fmt.Errorf("%w: bucket %q is not %q", ErrInvalidObjectURL, bucket, s.bucketName)
	}

	err = s.bucket.Object(path).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		s.logger.Debug("Object already deleted", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, mapGCSError(err))
	}
	return nil
}

// Owns reports whether objectURL names an object in the store's bucket.
func (s *FirebaseStore) Owns(objectURL string) bool {
	bucket, _, err := ParseFirebaseObjectURL(objectURL)
	return err == nil && bucket == s.bucketName
}

// FirebaseDownloadURL builds the token URL served by the Firebase Storage REST endpoint.
func FirebaseDownloadURL(bucket, path, token string) string {
	return fmt.Sprintf("https://%s/v0/b/%s/o/%s?alt=media&token=%s",
		firebaseDownloadHost, bucket, url.PathEscape(path), url.QueryEscape(token))
}

// ParseFirebaseObjectURL extracts bucket and object path from a Firebase
// download URL or a gs://bucket/path URL.
func ParseFirebaseObjectURL(objectURL string) (bucket, path string, err error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidObjectURL, err)
	}

	switch {
	case u.Scheme == "gs":
		bucket, path = u.Host, strings.TrimPrefix(u.Path, "/")
	case u.Host == firebaseDownloadHost:
		// /v0/b/<bucket>/o/<escaped path>
		parts := strings.SplitN(strings.TrimPrefix(u.EscapedPath(), "/"), "/", 5)
		if len(parts) != 5 || parts[0] != "v0" || parts[1] != "b" || parts[3] != "o" {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
		}
		bucket = parts[2]
		path, err = url.PathUnescape(parts[4])
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrInvalidObjectURL, err)
		}
	default:
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}

	if bucket == "" || path == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidObjectURL, objectURL)
	}
	return bucket, path, nil
}

func mapGCSError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}
