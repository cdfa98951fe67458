package helpers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestNormalizeImageDownscales(t *testing.T) {
	src := pngBytes(t, 2000, 1000)

	out, ct, err := NormalizeImage(src, 800)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", ct)

	decoded, err := imaging.Decode(out)
	require.NoError(t, err)
	require.Equal(t, 800, decoded.Bounds().Dx())
	require.Equal(t, 400, decoded.Bounds().Dy())
}

func TestNormalizeImageKeepsSmallImages(t *testing.T) {
	src := pngBytes(t, 300, 200)

	out, _, err := NormalizeImage(src, 800)
	require.NoError(t, err)

	decoded, err := imaging.Decode(out)
	require.NoError(t, err)
	require.Equal(t, 300, decoded.Bounds().Dx())
	require.Equal(t, 200, decoded.Bounds().Dy())
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	_, _, err := NormalizeImage(bytes.NewBufferString("not an image"), 800)
	require.Error(t, err)
}
