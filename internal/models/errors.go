package models

import (
	"errors"
)

var (
	ErrInvalidFileType = errors.New("file is not an image")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrFileRead        = errors.New("file read failed")
	ErrImageDecode     = errors.New("image decode failed")
	ErrProcessing      = errors.New("image processing failed")

	ErrNothingToDownload = errors.New("no processed image to download")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error keeps the place where an operation failed next to the cause.
type Error struct {
	Loc    string
	Detail string
	Err    error
}

func NewError(loc, detail string, err error) *Error {
	return &Error{Loc: loc, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Loc + ": " + e.Err.Error()
	}
	return e.Loc + ": " + e.Detail + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
