// Package artifacts stores run output (workbooks, reports, retry logs) in a
// blob store: the local Output/ tree by default, or a GCS bucket.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// Store persists one named artifact and returns its URI.
type Store interface {
	Put(ctx context.Context, name string, contentType string, data io.Reader) (string, error)
}

// UploadFile reads a file from disk and puts it under its base name, with the
// content type guessed from the extension.
func UploadFile(ctx context.Context, store Store, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	uri, err := store.Put(ctx, filepath.Base(path), contentType, f)
	if err != nil {
		return "", fmt.Errorf("upload artifact %s: %w", filepath.Base(path), err)
	}
	return uri, nil
}
