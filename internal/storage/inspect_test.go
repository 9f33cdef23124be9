package storage_test

import (
	"bytes"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruralsite/internal/apperrors"
	"ruralsite/internal/storage"
	"ruralsite/internal/storage/storagetest"
)

func TestInspectAcceptsImages(t *testing.T) {
	in := storage.Inspector{MaxBytes: 1 << 20, ImageMaxWidth: 100}

	out, err := in.Inspect(&storage.Upload{Field: "image", Filename: "photo.bin", Data: storagetest.PNG(10, 10)})
	require.NoError(t, err)

	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, "photo.png", out.Filename)
}

func TestInspectDownscalesWideImages(t *testing.T) {
	in := storage.Inspector{MaxBytes: 1 << 20, ImageMaxWidth: 20}

	out, err := in.Inspect(&storage.Upload{Field: "image", Filename: "wide.png", Data: storagetest.PNG(80, 40)})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestInspectRejections(t *testing.T) {
	in := storage.Inspector{MaxBytes: 64, ImageMaxWidth: 100}

	cases := map[string]*storage.Upload{
		"empty":     {Field: "image", Filename: "a.png"},
		"oversized": {Field: "image", Filename: "a.png", Data: bytes.Repeat([]byte("a"), 65)},
		"not image": {Field: "image", Filename: "a.png", Data: []byte("plain text, honestly")},
		"pdf field": {Field: "document", Filename: "a.png", Data: storagetest.PNG(2, 2)},
	}
	for name, up := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := in.Inspect(up)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, appErr.Fields, up.Field)
		})
	}
}

func TestInspectAcceptsPDFDocuments(t *testing.T) {
	in := storage.Inspector{MaxBytes: 1 << 20}

	out, err := in.Inspect(&storage.Upload{Field: "document", Filename: "role.pdf", Data: storagetest.PDF})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, "role.pdf", out.Filename)
}
