package mcp342x

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport classifies failures of the underlying bus. Fatal.
	ErrTransport = errors.New("mcp342x: transport error")

	// ErrFrameDecode classifies frames that cannot be trusted. Fatal, never retried.
	ErrFrameDecode = errors.New("mcp342x: frame decode error")
	// ErrNoMarker means no config byte followed by its marker copy was found.
	ErrNoMarker = fmt.Errorf("%w: config marker not found", ErrFrameDecode)
	// ErrShortFrame means the frame is too short for the resolution it reports.
	ErrShortFrame = fmt.Errorf("%w: short frame", ErrFrameDecode)
	// ErrConfigMismatch means the configuration read back after a write differs from what was written.
	ErrConfigMismatch = fmt.Errorf("%w: configuration not applied", ErrFrameDecode)

	// ErrInvalidArgument classifies options rejected before any bus I/O.
	ErrInvalidArgument = errors.New("invalid argument")
)

// TransportError wraps a failed bus operation.
type TransportError struct {
	Op   string // "read", "write" or "reset"
	Addr uint16
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mcp342x: %s at 0x%02X: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ArgumentError names the offending option.
type ArgumentError struct {
	Option string
	Value  any
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid value %v for option %q: %s", e.Value, e.Option, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// InvalidArgument is shorthand for constructing an [ArgumentError].
func InvalidArgument(option string, value any, reason string) error {
	return &ArgumentError{Option: option, Value: value, Reason: reason}
}
