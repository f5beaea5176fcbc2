package application

import (
	"context"
	"image"
)

// Luminosity weights scaled by 1000 so the rounding stays in integers.
const (
	redWeight   = 299
	greenWeight = 587
	blueWeight  = 114
)

// luminance returns round(0.299*r + 0.587*g + 0.114*b), halves rounded up.
func luminance(r, g, b uint8) uint8 {
	return uint8((redWeight*uint32(r) + greenWeight*uint32(g) + blueWeight*uint32(b) + 500) / 1000)
}

// toGrayScale rewrites R, G and B of every pixel in place; alpha is untouched.
func toGrayScale(ctx context.Context, img *image.NRGBA) error {
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if y%500 == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		row := img.Pix[img.PixOffset(bounds.Min.X, y) : img.PixOffset(bounds.Min.X, y)+4*bounds.Dx()]
		for i := 0; i < len(row); i += 4 {
			gray := luminance(row[i], row[i+1], row[i+2])
			row[i], row[i+1], row[i+2] = gray, gray, gray
		}
	}
	return nil
}
