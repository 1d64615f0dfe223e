// Package apperr defines the sentinel errors shared across Ansuz layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrIndexOutOfRange is returned by block-level operations given an
	// index outside the note's block sequence. The failing operation does
	// not mutate the document.
	ErrIndexOutOfRange = errors.New("block index out of range")

	// ErrParserRegistered is returned when a second parser claims a
	// syntax kind that is already registered.
	ErrParserRegistered = errors.New("parser already registered for syntax kind")
)
