package uci

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader indicates insufficient or invalid header bytes.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrFrameTooLarge indicates a declared or accumulated length exceeds
	// the configured packet bound.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrMalformedPayload indicates a payload too short or inconsistent
	// with the counts it carries.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrFragmentMismatch indicates a continuation fragment which doesn't
	// belong to the reassembly in progress.
	ErrFragmentMismatch = errors.New("fragment mismatch")
	// ErrInvalidParam indicates an argument which can't be encoded.
	ErrInvalidParam = errors.New("invalid parameter")
)

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformedPayload}, args...)...)
}
