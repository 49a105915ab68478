// Package checkpoint decorates errors with the caller position they passed through.
// Each error added to a checkpoint can still be checked by errors.Is and retrieved by errors.As,
// and Trace renders the recorded positions similar to a stacktrace.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps an error by a new checkpoint which records the caller position.
// It returns nil, if err == nil.
func From(err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newCheckpoint(nil, err)
}

// Wrap adds a checkpoint to prev and describes it further by err.
// Returns nil if prev == nil.
// This allows to predefine errors and use them later:
//  var ErrNoSpace = errors.New("no free cluster")
//
//  func allocate() error {
//  	err := scan()
//  	return checkpoint.Wrap(err, ErrNoSpace)
//  }
// Both ErrNoSpace and the error returned by scan() can then be matched with errors.Is.
func Wrap(prev, err error) error {
	// io.EOF must be returned as io.EOF directly
	// https://github.com/golang/go/issues/39155
	if prev == nil || prev == io.EOF {
		return prev
	}

	return newCheckpoint(err, prev)
}

// Mark creates a checkpoint for a sentinel error err and adds formatted details to it.
// In contrast to Wrap it always returns an error.
func Mark(err error, format string, args ...interface{}) error {
	return newCheckpoint(err, errors.New(fmt.Sprintf(format, args...)))
}

// Trace lists the recorded caller positions of all checkpoints in the chain of err, outermost first.
func Trace(err error) string {
	var b strings.Builder
	for err != nil {
		if c, ok := err.(*checkpoint); ok {
			if c.callerOk {
				fmt.Fprintf(&b, "%s:%d", c.file, c.line)
			} else {
				b.WriteString("unknown")
			}
			if c.err != nil {
				fmt.Fprintf(&b, ": %v", c.err)
			}
			b.WriteByte('\n')
		}
		err = errors.Unwrap(err)
	}
	return b.String()
}

func newCheckpoint(err, prev error) *checkpoint {
	// Skip newCheckpoint and the exported function calling it.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:  err,
		prev: prev,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) Error() string {
	if e.err == nil {
		return e.prev.Error()
	}

	// Avoid repeating the description if prev already starts with it.
	prev := e.prev.Error()
	desc := e.err.Error()
	if strings.HasPrefix(prev, desc) {
		return prev
	}
	return desc + ": " + prev
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.err != nil && errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.err != nil && errors.As(e.err, target)
}
