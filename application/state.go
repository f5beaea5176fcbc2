package application

import (
	"github.com/glekoz/bwfilter/internal/models"
	"github.com/google/uuid"
)

// State is one of Empty, Loading, Processing, Ready or Failed.
type State interface {
	String() string
	state()
}

// Empty: nothing loaded, waiting for a file.
type Empty struct{}

// Loading: the loader validates and reads the file. Previous is what stays
// on display meanwhile (Empty or Ready).
type Loading struct {
	Attempt  uuid.UUID
	FileName string
	Previous State
}

// Processing: the source is loaded and shown as a placeholder while the
// converter runs.
type Processing struct {
	Attempt  uuid.UUID
	FileName string
	Original models.Blob
}

type Ready struct {
	FileName  string
	Original  models.Blob
	Processed models.Blob
}

// Failed carries the error and its user message. Previous is Empty or the
// last Ready.
type Failed struct {
	Err      error
	Message  string
	Previous State
}

func (Empty) String() string      { return "empty" }
func (Loading) String() string    { return "loading" }
func (Processing) String() string { return "processing" }
func (Ready) String() string      { return "ready" }
func (Failed) String() string     { return "error" }

func (Empty) state()      {}
func (Loading) state()    {}
func (Processing) state() {}
func (Ready) state()      {}
func (Failed) state()     {}

// Display returns the image to render for s. placeholder is true while the
// source is shown in place of a result that is still being produced.
func Display(s State) (img models.Blob, placeholder bool) {
	switch st := s.(type) {
	case Ready:
		return st.Processed, false
	case Processing:
		return st.Original, true
	case Loading:
		return Display(st.Previous)
	case Failed:
		return Display(st.Previous)
	default:
		return "", false
	}
}

// stable reduces s to what a failure falls back to.
func stable(s State) State {
	switch st := s.(type) {
	case Ready:
		return st
	case Loading:
		return st.Previous
	case Failed:
		return st.Previous
	default:
		return Empty{}
	}
}

func attemptOf(s State) (uuid.UUID, bool) {
	switch st := s.(type) {
	case Loading:
		return st.Attempt, true
	case Processing:
		return st.Attempt, true
	default:
		return uuid.Nil, false
	}
}
