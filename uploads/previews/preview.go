package previews

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// GenerateImagePreview decodes an image, scales it down to the given width
// preserving aspect ratio and returns it JPEG-encoded, ready to upload.
func GenerateImagePreview(src io.Reader, width int) (*bytes.Buffer, error) {
	img, err := imaging.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	preview := imaging.Resize(img, width, 0, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, preview, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf, nil
}
