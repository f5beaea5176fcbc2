package application

import (
	"context"
	"path"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/glekoz/bwfilter/data/blob"
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

const (
	defaultFileName = "image"
	DownloadSuffix  = "_bw.jpg"
)

type LoaderAPI interface {
	Load(ctx context.Context, file models.SourceFile) (models.Blob, error)
}

type ConverterAPI interface {
	Convert(ctx context.Context, b models.Blob) (models.Blob, error)
}

// Download is the processed image ready to be written out.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// App holds the observable state: load → process → preview → download → reset.
// The lock is never held while loading or converting.
type App struct {
	Loader    LoaderAPI
	Converter ConverterAPI
	printer   *message.Printer
	log       *zap.Logger

	mu    sync.RWMutex
	state State
}

func NewApp(l LoaderAPI, c ConverterAPI, p *message.Printer, log *zap.Logger) *App {
	return &App{Loader: l, Converter: c, printer: p, log: log, state: Empty{}}
}

func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Select runs a new selection through the loader and the converter.
// A newer Select or a Reset supersedes it: its late result is dropped and nil is returned.
func (a *App) Select(ctx context.Context, file models.SourceFile) error {
	attempt := uuid.New()
	name := trimExt(file.Name())
	log := a.log.With(zap.Stringer("attempt", attempt), zap.String("file", file.Name()))

	a.mu.Lock()
	prev := stable(a.state)
	a.state = Loading{Attempt: attempt, FileName: name, Previous: prev}
	a.mu.Unlock()

	size := file.Size()
	if size < 0 {
		size = 0
	}
	log.Info("loading", zap.String("type", file.Type()), zap.String("size", humanize.IBytes(uint64(size))))

	original, err := a.Loader.Load(ctx, file)
	if err != nil {
		return a.fail(log, attempt, err, prev)
	}

	if !a.advance(attempt, Processing{Attempt: attempt, FileName: name, Original: original}) {
		log.Info("superseded while loading")
		return nil
	}
	log.Debug("processing")

	processed, err := a.Converter.Convert(ctx, original)
	if err != nil {
		return a.fail(log, attempt, err, Empty{})
	}

	if !a.advance(attempt, Ready{FileName: name, Original: original, Processed: processed}) {
		log.Info("superseded while processing")
		return nil
	}
	log.Info("ready")
	return nil
}

// advance moves to next only if attempt is still the one in flight.
func (a *App) advance(attempt uuid.UUID, next State) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	current, ok := attemptOf(a.state)
	if !ok || current != attempt {
		return false
	}
	a.state = next
	return true
}

func (a *App) fail(log *zap.Logger, attempt uuid.UUID, err error, previous State) error {
	msg := models.UserMessage(a.printer, err)
	if !a.advance(attempt, Failed{Err: err, Message: msg, Previous: previous}) {
		log.Info("superseded attempt failed", zap.Error(err))
		return nil
	}
	log.Warn("selection failed", zap.Error(err), zap.String("message", msg))
	return err
}

// Reset drops both images and any error.
func (a *App) Reset() {
	a.mu.Lock()
	a.state = Empty{}
	a.mu.Unlock()
	a.log.Info("reset")
}

// Download returns the processed image; it does not change the state.
func (a *App) Download() (Download, error) {
	loc := "App.Download"
	a.mu.RLock()
	ready, ok := a.state.(Ready)
	a.mu.RUnlock()
	if !ok {
		return Download{}, models.NewError(loc, "", models.ErrNothingToDownload)
	}

	contentType, data, err := blob.Decode(ready.Processed)
	if err != nil {
		return Download{}, models.NewError(loc, ready.FileName, err)
	}
	return Download{
		FileName:    downloadName(ready.FileName),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func downloadName(base string) string {
	if base == "" {
		base = defaultFileName
	}
	return base + DownloadSuffix
}

// trimExt drops the last extension: "a.tar.gz" → "a.tar", "photo." stays as is.
func trimExt(name string) string {
	ext := path.Ext(name)
	if ext == "." {
		return name
	}
	return name[:len(name)-len(ext)]
}
