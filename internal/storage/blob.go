package storage

import (
	"context"
	"fmt"
	"io"
)

// BlobStore holds rendered certificates and course images.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key string) (string, error) // fs returns "file://..." for dev
}

// CertificateKey is where an issued certificate document lives.
func CertificateKey(studentID, courseID int64, number, ext string) string {
	return fmt.Sprintf("certificates/%d/%d/%s.%s", studentID, courseID, number, ext)
}
