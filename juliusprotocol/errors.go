package juliusprotocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the module protocol client.
var (
	// ErrNotConnected indicates an operation was attempted without a connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates connect was called while already connected.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrDisconnected indicates the connection was lost while waiting for a reply.
	ErrDisconnected = errors.New("disconnected while waiting for reply")

	// ErrUnknownEncoding indicates the configured socket encoding is not supported.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// maxRecordInError bounds how much of a bad record is quoted in Error.
const maxRecordInError = 80

// DecodeError reports a record whose markup could not be parsed.
// Processing of that record is abandoned; later records are unaffected.
type DecodeError struct {
	Record string // The raw record text
	Cause  error  // The underlying parser error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	record := e.Record
	if len(record) > maxRecordInError {
		record = record[:maxRecordInError] + "..."
	}
	return fmt.Sprintf("malformed record %q: %v", record, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func newDecodeError(record string, cause error) error {
	return &DecodeError{Record: record, Cause: cause}
}

// ParseError represents an error that occurred while parsing command text.
type ParseError struct {
	Kind  ParseErrorKind
	Value string // The invalid value that caused the error
}

// ParseErrorKind categorizes parsing errors.
type ParseErrorKind int

const (
	// ErrKindInvalidCommand indicates an unknown command word.
	ErrKindInvalidCommand ParseErrorKind = iota
	// ErrKindUnexpectedArgument indicates arguments were given to a command that takes none.
	ErrKindUnexpectedArgument
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrKindInvalidCommand:
		return fmt.Sprintf("invalid command '%s'", e.Value)
	case ErrKindUnexpectedArgument:
		return fmt.Sprintf("unexpected argument '%s'", e.Value)
	default:
		return fmt.Sprintf("parse error: %s", e.Value)
	}
}

func newInvalidCommandError(cmd string) error {
	return &ParseError{Kind: ErrKindInvalidCommand, Value: cmd}
}

func newUnexpectedArgumentError(arg string) error {
	return &ParseError{Kind: ErrKindUnexpectedArgument, Value: arg}
}

// ConnectionError represents a connection-related error.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}
