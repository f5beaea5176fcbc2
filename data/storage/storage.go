package storage

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

type Storage struct {
	fs   afero.Fs
	Path string // каталог, куда сохраняются результаты (<name>_bw.jpg)
}

func NewStorage(fs afero.Fs, p string) (Storage, error) {
	loc := "Storage.NewStorage"
	if err := fs.MkdirAll(p, 0o755); err != nil {
		return Storage{}, models.NewError(loc, p, err)
	}
	return Storage{fs: fs, Path: p}, nil
}

// file is a models.SourceFile backed by the storage filesystem.
// The content is only opened by the loader.
type file struct {
	fs       afero.Fs
	path     string
	name     string
	mimeType string
	size     int64
}

func (f file) Name() string { return f.name }
func (f file) Type() string { return f.mimeType }
func (f file) Size() int64  { return f.size }

func (f file) Open() (io.ReadCloser, error) {
	return f.fs.Open(f.path)
}

// Source describes the file at path the way a file picker would: name, size
// and a declared type taken from the extension.
func (s Storage) Source(path string) (models.SourceFile, error) {
	loc := "Storage.Source"
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, models.NewError(loc, path, err)
	}
	if info.IsDir() {
		return nil, models.NewError(loc, path, models.ErrInvalidInput)
	}
	mimeType, err := s.declaredType(path)
	if err != nil {
		return nil, models.NewError(loc, path, err)
	}
	return file{
		fs:       s.fs,
		path:     path,
		name:     info.Name(),
		mimeType: mimeType,
		size:     info.Size(),
	}, nil
}

// declaredType prefers the extension; files without a known extension get
// their type from the header bytes.
func (s Storage) declaredType(path string) (string, error) {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t, nil
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// Save writes a downloaded result into the storage directory and returns its path.
func (s Storage) Save(ctx context.Context, name string, data []byte) (string, error) {
	loc := "Storage.Save"
	type Result struct {
		path string
		err  error
	}
	if name == "" || name != filepath.Base(name) {
		return "", models.NewError(loc, "name "+name, models.ErrInvalidInput)
	}
	resultChan := make(chan Result, 1)

	go func(ch chan<- Result) {
		defer close(ch)

		path := filepath.Join(s.Path, name)
		f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			ch <- Result{"", models.NewError(loc, path, err)}
			return
		}

		_, err = f.Write(data)
		err = multierr.Append(err, f.Close())
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			s.fs.Remove(path) // недописанный файл не оставляем
			ch <- Result{"", models.NewError(loc, path, err)}
			return
		}
		ch <- Result{path, nil}
	}(resultChan)

	select {
	case <-ctx.Done():
		return "", models.NewError(loc, "context", ctx.Err())
	case result := <-resultChan:
		if result.err != nil {
			return "", result.err
		}
		return result.path, nil
	}
}
