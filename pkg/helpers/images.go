package helpers

import (
	"bytes"
	"io"

	"github.com/disintegration/imaging"
)

// NormalizeImage decodes an uploaded image, downscales it so neither side
// exceeds maxDim, and re-encodes it as JPEG. Profile photos go through this
// before hitting blob storage so oversized camera uploads don't land in the
// bucket verbatim.
func NormalizeImage(r io.Reader, maxDim int) (io.Reader, string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}
	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", err
	}
	return &buf, "image/jpeg", nil
}
