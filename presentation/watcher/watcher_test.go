package watcher

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glekoz/bwfilter/application"
	"github.com/glekoz/bwfilter/data/storage"
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newApp() *application.App {
	return application.NewApp(application.NewLoader(), application.NewConverter(), models.Printer("en"), zap.NewNop())
}

func setup(t *testing.T, fs afero.Fs, out string) (*application.App, *Watcher) {
	t.Helper()
	st, err := storage.NewStorage(fs, out)
	require.NoError(t, err)
	app := newApp()
	return app, NewWatcher(app, st, "/drop", zap.NewNop())
}

func TestHandleConvertsAndSaves(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/drop/cat.png", pngBytes(t), 0o644))
	app, w := setup(t, fs, "/out")

	require.NoError(t, w.Handle(context.Background(), "/drop/cat.png"))

	assert.IsType(t, application.Ready{}, app.State())
	data, err := afero.ReadFile(fs, "/out/cat_bw.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}

func TestHandleWithoutAutoDownload(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/drop/cat.png", pngBytes(t), 0o644))
	app, w := setup(t, fs, "/out")
	w.AutoDownload = false

	require.NoError(t, w.Handle(context.Background(), "/drop/cat.png"))

	assert.IsType(t, application.Ready{}, app.State())
	ok, err := afero.Exists(fs, "/out/cat_bw.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleInvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/drop/notes.txt", []byte("hello"), 0o644))
	app, w := setup(t, fs, "/out")

	err := w.Handle(context.Background(), "/drop/notes.txt")
	require.ErrorIs(t, err, models.ErrInvalidFileType)

	failed, ok := app.State().(application.Failed)
	require.True(t, ok)
	assert.Equal(t, "Please upload an image file (JPG, PNG).", failed.Message)
}

func TestHandleSkips(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/drop/.partial.png", pngBytes(t), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/drop/cat_bw.jpg", []byte("jpeg"), 0o644))
	app, w := setup(t, fs, "/drop")
	w.SkipOutputs = true

	require.NoError(t, w.Handle(context.Background(), "/drop/.partial.png"))
	require.NoError(t, w.Handle(context.Background(), "/drop/cat_bw.jpg"))
	assert.Equal(t, application.Empty{}, app.State())
}

func TestHandleMissingFile(t *testing.T) {
	_, w := setup(t, afero.NewMemMapFs(), "/out")
	assert.Error(t, w.Handle(context.Background(), "/drop/gone.png"))
}

func TestRunPicksUpDroppedFile(t *testing.T) {
	drop, out := t.TempDir(), t.TempDir()
	fs := afero.NewOsFs()
	st, err := storage.NewStorage(fs, out)
	require.NoError(t, err)
	app := newApp()
	w := NewWatcher(app, st, drop, zap.NewNop())
	w.Settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// Run adds the watch asynchronously; keep dropping until it is seen
	src := filepath.Join(drop, "dog.png")
	data := pngBytes(t)
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(src, data, 0o644)
		_, err := os.Stat(filepath.Join(out, "dog_bw.jpg"))
		return err == nil
	}, 5*time.Second, 100*time.Millisecond)
}
