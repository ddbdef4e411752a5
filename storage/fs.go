// Filesystem uploader for local development.
//
// Objects land under a root directory using the same uploads/{uuid}/{name}
// layout as the bucket backends, and are served back by the HTTP server's
// /files/ route.

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FSUploader writes payloads to a local directory.
type FSUploader struct {
	root    string
	baseURL string
}

// NewFSUploader creates an uploader rooted at dir. Retrieval URLs are
// baseURL + "/" + key, e.g. http://localhost:8080/files/uploads/...
func NewFSUploader(dir, baseURL string) (*FSUploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FSUploader{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Root returns the directory objects are written under.
func (u *FSUploader) Root() string {
	return u.root
}

// Upload writes the payload to disk and returns a link served by the
// local /files/ route. The expiry mirrors the bucket backends; local files
// are not actually deleted when it passes.
func (u *FSUploader) Upload(ctx context.Context, data []byte, mimeType, suggestedName string) (UploadedObject, error) {
	if err := ctx.Err(); err != nil {
		return UploadedObject{}, &StorageError{Op: "upload", Err: err}
	}

	key := objectKey(suggestedName)
	path := filepath.Join(u.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return UploadedObject{}, &StorageError{Op: "mkdir " + key, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return UploadedObject{}, &StorageError{Op: "write " + key, Err: err}
	}

	return UploadedObject{
		Key:      key,
		URL:      u.baseURL + "/" + key,
		MIMEType: resolveMIME(data, mimeType),
		Size:     int64(len(data)),
		Expiry:   time.Now().Add(LinkValidity),
	}, nil
}

// Verify FSUploader implements Uploader
var _ Uploader = (*FSUploader)(nil)
