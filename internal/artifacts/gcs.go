package artifacts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCS uploads artifacts to a bucket, optionally under a key prefix, and
// returns gs:// URIs.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS builds a GCS-backed store.
func NewGCS(client *storage.Client, bucket, prefix string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// Put uploads the artifact.
func (s *GCS) Put(ctx context.Context, name string, contentType string, data io.Reader) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	key := name
	if s.prefix != "" {
		key = s.prefix + "/" + name
	}

	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}
