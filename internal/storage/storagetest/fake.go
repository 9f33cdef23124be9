// Package storagetest provides an in-memory AssetStore that records calls.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"sync"

	"ruralsite/internal/models"
	"ruralsite/internal/storage"
)

// BaseURL prefixes every URL the fake hands out.
const BaseURL = "https://cdn.example.test"

// Store keeps objects in a map. Set UploadErr or DeleteErr to make the
// matching call fail.
type Store struct {
	mu        sync.Mutex
	seq       int
	objects   map[string][]byte
	uploads   []string
	deletes   []string
	UploadErr error
	DeleteErr error
}

var _ storage.AssetStore = (*Store)(nil)

func New() *Store {
	return &Store{objects: map[string][]byte{}}
}

func (s *Store) Upload(ctx context.Context, up *storage.Upload, folder string) (models.ManagedAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	key := storage.ObjectKey(folder, fmt.Sprintf("asset-%d", s.seq), filepath.Ext(up.Filename))
	s.uploads = append(s.uploads, key)
	if s.UploadErr != nil {
		return models.ManagedAsset{}, &storage.UploadError{Op: "upload", Handle: key, Err: s.UploadErr}
	}
	if err := ctx.Err(); err != nil {
		return models.ManagedAsset{}, &storage.UploadError{Op: "upload", Handle: key, Err: err}
	}

	s.objects[key] = append([]byte(nil), up.Data...)
	return models.ManagedAsset{
		URL:         BaseURL + "/" + key,
		Handle:      key,
		ContentType: up.ContentType,
		Size:        up.Size(),
	}, nil
}

func (s *Store) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, handle)
	if s.DeleteErr != nil {
		return &storage.UploadError{Op: "delete", Handle: handle, Err: s.DeleteErr}
	}
	delete(s.objects, handle)
	return nil
}

// Put seeds an object as if it had been uploaded earlier.
func (s *Store) Put(handle string, data []byte) models.ManagedAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[handle] = data
	return models.ManagedAsset{URL: BaseURL + "/" + handle, Handle: handle, Size: int64(len(data))}
}

func (s *Store) Has(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[handle]
	return ok
}

// Uploads lists attempted upload keys, failed ones included.
func (s *Store) Uploads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploads...)
}

// Deletes lists every handle Delete was called with.
func (s *Store) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

func (s *Store) Objects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// PNG encodes a solid w x h image.
func PNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 34, G: 139, B: 34, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PDF is a minimal document that sniffs as application/pdf.
var PDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
