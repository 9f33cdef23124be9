package storage

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"ruralsite/internal/apperrors"
)

// Accepted MIME types per asset kind.
var (
	ImageTypes    = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	DocumentTypes = []string{"application/pdf"}
)

// DocumentField is the form field that carries documents instead of images.
const DocumentField = "document"

// Inspector enforces size and type limits and shrinks oversized images
// before anything is sent to the asset host.
type Inspector struct {
	MaxBytes      int64
	ImageMaxWidth int
}

// Inspect sniffs the payload and returns it with a trusted content type and
// extension. Rejections are validation errors keyed by the form field.
func (i Inspector) Inspect(up *Upload) (*Upload, error) {
	field := up.Field
	if field == "" {
		field = "file"
	}
	if len(up.Data) == 0 {
		return nil, apperrors.Invalid(field, field+" is empty")
	}
	if i.MaxBytes > 0 && up.Size() > i.MaxBytes {
		return nil, apperrors.Invalid(field, fmt.Sprintf("%s exceeds %d bytes", field, i.MaxBytes))
	}

	allowed := ImageTypes
	if field == DocumentField {
		allowed = DocumentTypes
	}

	detected := mimetype.Detect(up.Data)
	if !mimetype.EqualsAny(detected.String(), allowed...) {
		return nil, apperrors.Invalid(field, fmt.Sprintf("%s type %s is not allowed", field, detected.String()))
	}

	out := &Upload{
		Field:       up.Field,
		Filename:    up.Filename,
		ContentType: detected.String(),
		Data:        up.Data,
	}
	if !strings.EqualFold(extOf(out.Filename), detected.Extension()) {
		out.Filename = strings.TrimSuffix(out.Filename, extOf(out.Filename)) + detected.Extension()
	}

	if i.ImageMaxWidth > 0 && (detected.Is("image/jpeg") || detected.Is("image/png")) {
		resized, err := i.downscale(out.Data, detected.Is("image/png"))
		if err != nil {
			return nil, apperrors.Invalid(field, field+" could not be decoded")
		}
		out.Data = resized
	}
	return out, nil
}

func (i Inspector) downscale(data []byte, isPNG bool) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() <= i.ImageMaxWidth {
		return data, nil
	}

	resized := imaging.Resize(img, i.ImageMaxWidth, 0, imaging.Lanczos)
	format := imaging.JPEG
	if isPNG {
		format = imaging.PNG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 && !strings.Contains(name[idx:], "/") {
		return name[idx:]
	}
	return ""
}
