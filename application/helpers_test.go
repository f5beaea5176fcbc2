package application

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/glekoz/bwfilter/data/blob"
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeFile is a SourceFile that counts how often its content was opened.
type fakeFile struct {
	name     string
	mimeType string
	size     int64
	data     []byte
	openErr  error
	reader   io.Reader
	opens    int
}

func (f *fakeFile) Name() string { return f.name }
func (f *fakeFile) Type() string { return f.mimeType }
func (f *fakeFile) Size() int64  { return f.size }

func (f *fakeFile) Open() (io.ReadCloser, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.reader != nil {
		return io.NopCloser(f.reader), nil
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func newFile(name, mimeType string, data []byte) *fakeFile {
	return &fakeFile{name: name, mimeType: mimeType, size: int64(len(data)), data: data}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// blockingReader blocks until release is closed.
type blockingReader struct{ release chan struct{} }

func (r blockingReader) Read([]byte) (int, error) {
	<-r.release
	return 0, io.EOF
}

var errDisk = errors.New("disk on fire")

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func blobOf(t *testing.T, mediaType string, data []byte) models.Blob {
	t.Helper()
	b, err := blob.Encode(mediaType, data)
	require.NoError(t, err)
	return b
}

// redGreen is the 2×1 opaque image with pixels (255,0,0,255) and (0,255,0,255).
func redGreen() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	return img
}

// gradient fills a w×h image with varied colors.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// decodeResult parses a processed blob back into an image.
func decodeResult(t *testing.T, b models.Blob) image.Image {
	t.Helper()
	mt, data, err := blob.Decode(b)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mt)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgb8(c color.Color) (uint8, uint8, uint8, uint8) {
	r, g, b, a := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
}
