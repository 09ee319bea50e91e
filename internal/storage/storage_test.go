package storage

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFirebaseDownloadURL_RoundTrip(t *testing.T) {
	u := FirebaseDownloadURL("craft.appspot.com", "Template/1700000000000-my resume.png", "tok-1")
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/craft.appspot.com/o/Template%2F1700000000000-my%20resume.png?alt=media&token=tok-1",
		u)

	bucket, path, err := ParseFirebaseObjectURL(u)
	require.NoError(t, err)
	assert.Equal(t, "craft.appspot.com", bucket)
	assert.Equal(t, "Template/1700000000000-my resume.png", path)
}

func TestParseFirebaseObjectURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantPath   string
		wantErr    bool
	}{
		{name: "gs url", url: "gs://craft.appspot.com/Template/1-a.png", wantBucket: "craft.appspot.com", wantPath: "Template/1-a.png"},
		{name: "foreign host", url: "https://example.com/v0/b/x/o/y", wantErr: true},
		{name: "truncated path", url: "https://firebasestorage.googleapis.com/v0/b/x", wantErr: true},
		{name: "empty object", url: "gs://bucket/", wantErr: true},
		{name: "garbage", url: "::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, path, err := ParseFirebaseObjectURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidObjectURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestS3PublicURL(t *testing.T) {
	assert.Equal(t, "https://tpl.s3.eu-west-1.amazonaws.com", S3PublicURL(S3Config{Bucket: "tpl", Region: "eu-west-1"}))
	assert.Equal(t, "http://localhost:9000/tpl", S3PublicURL(S3Config{Bucket: "tpl", Endpoint: "http://localhost:9000/"}))
}

func TestProgressReader(t *testing.T) {
	data := strings.Repeat("x", 1000)
	var seen []int64
	pr := newProgressReader(bytes.NewReader([]byte(data)), 1000, func(transferred, total int64) {
		assert.Equal(t, int64(1000), total)
		seen = append(seen, transferred)
	})

	buf := make([]byte, 300)
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{300, 600, 900, 1000}, seen)

	pos, err := pr.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	_, err = newProgressReader(io.MultiReader(), 0, nil).Seek(0, io.SeekStart)
	assert.Error(t, err)
}

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string                 { return e.code }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.code }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestErrorMapping(t *testing.T) {
	assert.ErrorIs(t, mapGCSError(&googleapi.Error{Code: http.StatusForbidden}), ErrUnauthorized)
	assert.ErrorIs(t, mapGCSError(&googleapi.Error{Code: http.StatusUnauthorized}), ErrUnauthorized)
	assert.ErrorIs(t, mapGCSError(status.Error(codes.PermissionDenied, "no")), ErrUnauthorized)
	assert.NotErrorIs(t, mapGCSError(&googleapi.Error{Code: http.StatusServiceUnavailable}), ErrUnauthorized)

	assert.ErrorIs(t, mapS3Error(fakeAPIError{code: "AccessDenied"}), ErrUnauthorized)
	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapS3Error(plain))
	assert.NotErrorIs(t, mapS3Error(fakeAPIError{code: "NoSuchBucket"}), ErrUnauthorized)
}

func TestOwns(t *testing.T) {
	fs := &FirebaseStore{bucketName: "craft.appspot.com"}
	assert.True(t, fs.Owns(FirebaseDownloadURL("craft.appspot.com", "Template/1-a.png", "tok")))
	assert.True(t, fs.Owns("gs://craft.appspot.com/Template/1-a.png"))
	assert.False(t, fs.Owns(FirebaseDownloadURL("other.appspot.com", "Template/1-a.png", "tok")))
	assert.False(t, fs.Owns("https://evil.example/x.png"))

	s3s := &S3Store{publicURL: S3PublicURL(S3Config{Bucket: "tpl", Region: "eu-west-1"})}
	assert.True(t, s3s.Owns("https://tpl.s3.eu-west-1.amazonaws.com/Template/1-a.png"))
	assert.False(t, s3s.Owns("https://tpl.s3.eu-west-1.amazonaws.com/"))
	assert.False(t, s3s.Owns("https://tpl.s3.eu-west-1.amazonaws.com.evil.example/x.png"))
	assert.False(t, s3s.Owns("https://evil.example/x.png"))
}
