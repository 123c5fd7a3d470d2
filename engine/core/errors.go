package core

import (
	"github.com/cockroachdb/errors"
)

// Error kinds. Concrete failures are marked with one of these so callers can
// test them with errors.Is regardless of the context wrapped around them.
var (
	ErrNoSuitableMemory = errors.New("no suitable memory type")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrCreation         = errors.New("object creation failed")
	ErrImage            = errors.New("image decode failed")
	ErrIO               = errors.New("i/o failure")
	ErrHostExecution    = errors.New("host execution failed")
	ErrIndex            = errors.New("index out of range")
	ErrLogic            = errors.New("invalid state")
	ErrPresent          = errors.New("present failed")
	ErrCapacity         = errors.New("capacity exceeded")
	ErrMapping          = errors.New("memory map failed")
	ErrBind             = errors.New("memory bind failed")
	ErrNoGlyphs         = errors.New("no glyphs to render")
)

// Errorf builds a new error of the given kind.
func Errorf(kind error, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), kind)
}

// Wrapf marks err with kind and adds context. A nil err stays nil.
func Wrapf(err error, kind error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(errors.Mark(err, kind), format, args...)
}
