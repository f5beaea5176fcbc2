package application

import (
	"context"
	"image"
)

// surface is the single raster buffer reused across conversions.
// token has capacity 1: whoever holds it owns img.
type surface struct {
	token chan struct{}
	img   *image.NRGBA
}

func newSurface() *surface {
	return &surface{token: make(chan struct{}, 1)}
}

// acquire takes the token and returns the buffer sized to size, anchored at (0,0).
// The previous contents are not cleared.
func (s *surface) acquire(ctx context.Context, size image.Point) (*image.NRGBA, error) {
	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	n := 4 * size.X * size.Y
	if s.img == nil || cap(s.img.Pix) < n {
		s.img = image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
		return s.img, nil
	}
	s.img.Pix = s.img.Pix[:n]
	s.img.Stride = 4 * size.X
	s.img.Rect = image.Rect(0, 0, size.X, size.Y)
	return s.img, nil
}

func (s *surface) release() {
	<-s.token
}
