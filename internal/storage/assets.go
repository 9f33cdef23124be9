// Package storage keeps binary assets on the remote media host. Every stored
// asset comes back with a handle so it can be deleted later without parsing
// its public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/models"
)

// Upload is a file received from a client, already read into memory.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

func (u *Upload) Size() int64 {
	if u == nil {
		return 0
	}
	return int64(len(u.Data))
}

// AssetStore is the remote media host. Delete treats a missing object as
// already deleted.
type AssetStore interface {
	Upload(ctx context.Context, up *Upload, folder string) (models.ManagedAsset, error)
	Delete(ctx context.Context, handle string) error
}

// UploadError means the host was unreachable or refused the payload.
type UploadError struct {
	Op     string
	Handle string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("asset %s %s: %v", e.Op, e.Handle, e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{apperrors.ErrUpload, e.Err}
}

// Errors returned by HandleFromURL.
var (
	ErrForeignURL = errors.New("url is not served from the asset host")
	ErrBadHandle  = errors.New("url does not contain a usable handle")
)

// HandleFromURL recovers the object key of a URL produced by this service.
// Only the helper backfill command uses it; live code always has the
// persisted handle.
func HandleFromURL(baseURL, rawURL string) (string, error) {
	base := strings.TrimRight(baseURL, "/")
	if base == "" || !strings.HasPrefix(rawURL, base+"/") {
		return "", ErrForeignURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery != "" || u.Fragment != "" {
		return "", ErrBadHandle
	}

	handle := strings.TrimPrefix(rawURL, base+"/")
	if unescaped, err := url.PathUnescape(handle); err == nil {
		handle = unescaped
	}
	if handle == "" || strings.HasSuffix(handle, "/") || path.Clean(handle) != handle || strings.HasPrefix(handle, "../") {
		return "", ErrBadHandle
	}
	return handle, nil
}

// ObjectKey builds the key for a new upload under folder.
func ObjectKey(folder, id, ext string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return id + ext
	}
	return folder + "/" + id + ext
}
