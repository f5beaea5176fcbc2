package models

import (
	"io"
)

// MaxFileSize is the largest source file accepted by the loader (10 MiB).
const MaxFileSize = 10 << 20

// SourceFile is a user supplied file. Name, Type and Size are declared by
// the environment and are known without reading the content.
type SourceFile interface {
	Name() string
	Type() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Blob is a data URL: "data:<mime>;base64,<payload>".
type Blob string

func (b Blob) String() string {
	return string(b)
}
