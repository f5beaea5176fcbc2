package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/glekoz/bwfilter/application"
	"github.com/glekoz/bwfilter/internal/models"
	"go.uber.org/zap"
)

type AppAPI interface {
	Select(ctx context.Context, file models.SourceFile) error
	Download() (application.Download, error)
}

type StorageAPI interface {
	Source(path string) (models.SourceFile, error)
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Watcher turns files dropped into Dir into selections. Events are handled
// one at a time on the Run goroutine.
type Watcher struct {
	App          AppAPI
	Storage      StorageAPI
	Dir          string
	Settle       time.Duration // пауза после последнего события, пока файл дописывается
	AutoDownload bool
	SkipOutputs  bool // результаты пишутся в ту же папку
	log          *zap.Logger
}

func NewWatcher(app AppAPI, storage StorageAPI, dir string, log *zap.Logger) *Watcher {
	return &Watcher{App: app, Storage: storage, Dir: dir, Settle: 300 * time.Millisecond, AutoDownload: true, log: log}
}

func (w *Watcher) Run(ctx context.Context) error {
	loc := "Watcher.Run"
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return models.NewError(loc, "fsnotify.NewWatcher", err)
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return models.NewError(loc, w.Dir, err)
	}
	w.log.Info("watching", zap.String("dir", w.Dir))

	pending := make(map[string]*time.Timer)
	settled := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if t, ok := pending[ev.Name]; ok {
				t.Reset(w.Settle)
				continue
			}
			name := ev.Name
			pending[name] = time.AfterFunc(w.Settle, func() {
				select {
				case settled <- name:
				case <-ctx.Done():
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case name := <-settled:
			delete(pending, name)
			if err := w.Handle(ctx, name); err != nil {
				w.log.Warn("dropped file not processed", zap.String("path", name), zap.Error(err))
			}
		}
	}
}

// Handle selects the file at path and, with AutoDownload, saves the result.
func (w *Watcher) Handle(ctx context.Context, path string) error {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || (w.SkipOutputs && strings.HasSuffix(name, application.DownloadSuffix)) {
		w.log.Debug("skip", zap.String("path", path))
		return nil
	}

	file, err := w.Storage.Source(path)
	if err != nil {
		return err
	}
	if err := w.App.Select(ctx, file); err != nil {
		return err
	}
	if !w.AutoDownload {
		return nil
	}

	d, err := w.App.Download()
	if err != nil {
		if errors.Is(err, models.ErrNothingToDownload) {
			// выбор уже перекрыт другим
			return nil
		}
		return err
	}
	saved, err := w.Storage.Save(ctx, d.FileName, d.Data)
	if err != nil {
		return err
	}
	w.log.Info("saved", zap.String("path", saved), zap.String("size", humanize.IBytes(uint64(len(d.Data)))))
	return nil
}
