// Package storage provides object-storage upload with presigned retrieval.
//
// Information Hiding:
// - Bucket layout and key generation hidden
// - Presigning mechanics hidden per backend
// - Credentials handled by backend constructors
package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// LinkValidity is how long retrieval URLs stay valid.
const LinkValidity = 7 * 24 * time.Hour

// UploadedObject describes a stored payload and its retrieval link.
type UploadedObject struct {
	Key      string    `json:"key"`
	URL      string    `json:"url"`
	MIMEType string    `json:"mime_type"`
	Size     int64     `json:"size"`
	Expiry   time.Time `json:"expiry"`
}

// Uploader stores a named byte payload and returns a time-limited
// retrieval URL. Implementations perform exactly one remote write and
// never retry; retry policy, if any, belongs to the caller.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType, suggestedName string) (UploadedObject, error)
}

// StorageError wraps any failure to store a payload: network errors, auth
// failures, quota. Callers treat all of them uniformly.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// objectKey builds the bucket key for an upload. The uploads/{uuid}/{name}
// convention is relied on by external consumers that list the bucket.
func objectKey(suggestedName string) string {
	return fmt.Sprintf("uploads/%s/%s", uuid.NewString(), suggestedName)
}

// resolveMIME falls back to content sniffing when the caller did not
// declare a MIME type.
func resolveMIME(data []byte, declared string) string {
	if declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}
