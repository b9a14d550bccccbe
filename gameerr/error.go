package gameerr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error is a rejected action. It is never fatal and never retried.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// With attaches a metadata key/value and returns the same error.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = fmt.Sprint(value)
	return e
}

// InsufficientFunds reports a purchase the player cannot afford.
func InsufficientFunds(required, available int) *Error {
	return Newf(KindInsufficientFunds, "need %d coins, have %d", required, available).
		With("required", required).
		With("available", available)
}

// KindOf extracts the kind from any error. Non-game errors are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MetadataOf returns the metadata of a game error, or nil.
func MetadataOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

// Status converts err to a gRPC status. Errors that are not game errors
// become Internal with a generic message.
func Status(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	var e *Error
	if errors.As(err, &e) {
		return status.New(e.Kind.GRPCCode(), e.Error())
	}
	return status.New(codes.Internal, "an unexpected error occurred")
}
