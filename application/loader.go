package application

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/glekoz/bwfilter/data/blob"
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/go-playground/validator/v10"
)

// Loader turns a source file into a data URL blob.
type Loader struct {
	validate *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// declared must stay in sync with models.MaxFileSize.
type declared struct {
	Type string `validate:"required,startswith=image/"`
	Size int64  `validate:"gte=0,lte=10485760"`
}

// check validates what the environment declared about the file. Type wins
// over size when both are wrong.
func (l *Loader) check(file models.SourceFile) (string, error) {
	loc := "Loader.check"
	err := l.validate.Struct(declared{Type: file.Type(), Size: file.Size()})
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return "", models.NewError(loc, file.Name(), err)
		}
		for _, fe := range verrs {
			if fe.Field() == "Type" {
				return "", models.NewError(loc, file.Type(), models.ErrInvalidFileType)
			}
		}
		return "", models.NewError(loc, fmt.Sprintf("size %d", file.Size()), models.ErrFileTooLarge)
	}

	mediaType, err := blob.MediaType(file.Type())
	if err != nil {
		return "", models.NewError(loc, file.Type(), fmt.Errorf("%w: %w", models.ErrInvalidFileType, err))
	}
	return mediaType, nil
}

// Load validates the file before touching its content, then reads it fully.
// The read runs in its own goroutine; ctx only stops the wait.
func (l *Loader) Load(ctx context.Context, file models.SourceFile) (models.Blob, error) {
	loc := "Loader.Load"
	mediaType, err := l.check(file)
	if err != nil {
		return "", err
	}

	type Result struct {
		data []byte
		err  error
	}
	resultChan := make(chan Result, 1)

	go func(ch chan<- Result) {
		defer close(ch)
		data, err := readAll(file)
		ch <- Result{data, err}
	}(resultChan)

	select {
	case <-ctx.Done():
		return "", models.NewError(loc, "context", fmt.Errorf("%w: %w", models.ErrFileRead, ctx.Err()))
	case result := <-resultChan:
		if result.err != nil {
			return "", models.NewError(loc, file.Name(), result.err)
		}
		b, err := blob.Encode(mediaType, result.data)
		if err != nil {
			return "", models.NewError(loc, file.Name(), fmt.Errorf("%w: %w", models.ErrFileRead, err))
		}
		return b, nil
	}
}

func readAll(file models.SourceFile) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrFileRead, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, models.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrFileRead, err)
	}
	if len(data) > models.MaxFileSize {
		// файл вырос после проверки размера
		return nil, models.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", models.ErrFileRead)
	}
	return data, nil
}
