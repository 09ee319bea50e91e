package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnauthorized is returned when the object store rejects the service credentials.
	ErrUnauthorized = errors.New("storage: authorization revoked")
	// ErrInvalidObjectURL is returned when a URL does not point into the configured bucket.
	ErrInvalidObjectURL = errors.New("storage: url does not reference a stored object")
)

// ProgressFunc receives the bytes written so far and the total size.
type ProgressFunc func(transferred, total int64)

// ObjectStore is the blob storage used for template images.
type ObjectStore interface {
	// Upload writes r (size bytes) at path and returns a durable download URL.
	Upload(ctx context.Context, path, contentType string, r io.Reader, size int64, progress ProgressFunc) (string, error)
	// Delete removes the object referenced by a URL previously returned by Upload.
	// A missing object is not an error.
	Delete(ctx context.Context, objectURL string) error
	// Owns reports whether objectURL references an object in this store.
	Owns(objectURL string) bool
}

// progressReader reports cumulative reads to fn.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	if fn == nil {
		fn = func(int64, int64) {}
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.read, p.total)
	}
	return n, err
}

// Seek lets SDKs rewind the body, e.g. after hashing it for request signing.
func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := p.r.(io.Seeker)
	if !ok {
		return 0, errors.New("storage: underlying reader is not seekable")
	}
	pos, err := s.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	p.read = pos
	return pos, nil
}
