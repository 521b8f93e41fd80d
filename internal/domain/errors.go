package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownVendor = errors.New("unknown pms vendor")

	ErrTransient   = errors.New("transient external error")
	ErrMalformed   = errors.New("malformed input")
	ErrPersistence = errors.New("persistence failure")
)

// ExternalError wraps any failure of a PMS call. Callers may retry the whole
// unit of work; the engine never retries on its own.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string        { return fmt.Sprintf("pms %s: %v", e.Op, e.Err) }
func (e *ExternalError) Unwrap() error        { return e.Err }
func (e *ExternalError) Is(target error) bool { return target == ErrTransient }

// MalformedInputError is not retryable.
type MalformedInputError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Field, e.Value)
}
func (e *MalformedInputError) Unwrap() error        { return e.Err }
func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformed }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string        { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error        { return e.Err }
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
