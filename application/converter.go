package application

import (
	"bytes"
	"context"
	"fmt"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/glekoz/bwfilter/data/blob"
	"github.com/glekoz/bwfilter/internal/models"
	_ "golang.org/x/image/webp"
)

const (
	jpegQuality = 90
	resultType  = "image/jpeg"
)

// Converter produces the grayscale JPEG blob. It owns one raster surface,
// so conversions on the same Converter run one at a time.
type Converter struct {
	surface *surface
}

func NewConverter() *Converter {
	return &Converter{surface: newSurface()}
}

func (c *Converter) Convert(ctx context.Context, b models.Blob) (models.Blob, error) {
	loc := "Converter.Convert"
	_, data, err := blob.Decode(b)
	if err != nil {
		return "", models.NewError(loc, "blob.Decode", fmt.Errorf("%w: %w", models.ErrImageDecode, err))
	}

	// размеры как у naturalWidth/naturalHeight в браузере, с учетом EXIF-ориентации
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", models.NewError(loc, "imaging.Decode", fmt.Errorf("%w: %w", models.ErrImageDecode, err))
	}
	size := src.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return "", models.NewError(loc, "empty image", models.ErrImageDecode)
	}

	dst, err := c.surface.acquire(ctx, size)
	if err != nil {
		return "", models.NewError(loc, "surface", fmt.Errorf("%w: %w", models.ErrProcessing, err))
	}
	defer c.surface.release()

	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	if err := toGrayScale(ctx, dst); err != nil {
		return "", models.NewError(loc, "toGrayScale", fmt.Errorf("%w: %w", models.ErrProcessing, err))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", models.NewError(loc, "imaging.Encode", fmt.Errorf("%w: %w", models.ErrProcessing, err))
	}
	out, err := blob.Encode(resultType, buf.Bytes())
	if err != nil {
		return "", models.NewError(loc, "blob.Encode", fmt.Errorf("%w: %w", models.ErrProcessing, err))
	}
	return out, nil
}
