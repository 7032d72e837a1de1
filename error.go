package linerpc

import (
	"errors"
	"fmt"
)

// Protocol errors defined by JSON-RPC 2.0, with the messages this
// implementation puts on the wire. Site-specific -32600 messages are
// derived with [Error.WithMessage].
var (
	ErrParse          = NewError(-32700, "Invalid JSON")
	ErrInvalidRequest = NewError(-32600, "Invalid Request")
	ErrMethodNotFound = NewError(-32601, "Method not found")
	ErrInvalidParams  = NewError(-32602, "Invalid params")
	ErrInternalError  = NewError(-32603, "Internal Error")
	ErrUnknown        = NewError(-32000, "Error: Unknown error occurred")
)

// Sentinel errors for transport and codec failures. These never travel on
// the wire; they are returned to local callers and may be tested with
// [errors.Is].
var (
	ErrDecoding      = errors.New("linerpc: decoding error")
	ErrEncoding      = errors.New("linerpc: encoding error")
	ErrClientClosed  = errors.New("linerpc: client closed")
	ErrNotConnected  = errors.New("linerpc: client not connected")
	ErrOversizedLine = errors.New("linerpc: line exceeds maximum length")
)

// RPCError is the wire representation of an error object used by [Error].
type RPCError struct {
	Data    ErrorData `json:"data,omitempty,omitzero"`
	Message string    `json:"message"`
	Code    int64     `json:"code"`
}

// Error represents a JSON-RPC 2.0 error object.
//
// Error supports the go error interface and may be used as a normal
// error. Handlers that return an Error have it sent to the caller
// verbatim; an [InvalidParamsError] is sent as code -32602, and any other
// error is masked as [ErrUnknown].
type Error struct {
	present bool
	err     RPCError
}

// NewError returns a new [Error] with its Code and Message fields assigned to the given values.
func NewError(code int64, msg string) Error {
	return Error{present: true, err: RPCError{Code: code, Message: msg}}
}

// NewErrorWithData is the same as [NewError] but also allows setting of the Data field.
func NewErrorWithData(code int64, msg string, data any) Error {
	return Error{present: true, err: RPCError{Code: code, Message: msg, Data: NewErrorData(data)}}
}

// asError converts a handler failure into the [Error] that is sent to the
// caller. RPC errors pass through, invalid-params failures map to -32602
// with their own message, and anything else is masked as [ErrUnknown].
func asError(e error) Error {
	var je Error
	if errors.As(e, &je) {
		return je
	}

	var ip *InvalidParamsError
	if errors.As(e, &ip) {
		return ErrInvalidParams.WithMessage(ip.Error())
	}

	return ErrUnknown
}

// Code returns the code present in the error.
func (e *Error) Code() int64 {
	return e.err.Code
}

// Message returns the message present in the error.
func (e *Error) Message() string {
	return e.err.Message
}

// Data returns the data present in the error.
func (e *Error) Data() *ErrorData {
	return &e.err.Data
}

// WithData returns a copy of the current [Error] with its Data field set to data.
func (e *Error) WithData(data any) Error {
	return Error{present: true, err: RPCError{Code: e.err.Code, Message: e.err.Message, Data: NewErrorData(data)}}
}

// WithMessage returns a copy of the current [Error] with its Message
// replaced. The code is kept, so the copy still compares equal to the
// original under [errors.Is].
func (e *Error) WithMessage(msg string) Error {
	return Error{present: true, err: RPCError{Code: e.err.Code, Message: msg, Data: e.err.Data}}
}

// Is returns true if t is of type [Error] and their Code fields match.
func (e Error) Is(t error) bool {
	if jerr, ok := t.(Error); ok {
		return e.err.Code == jerr.err.Code
	}

	if jerr, ok := t.(*Error); ok {
		return e.err.Code == jerr.err.Code
	}

	return false
}

// IsZero returns true if the error member was absent.
func (e *Error) IsZero() bool {
	return !e.present
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.err.Message
}

// UnmarshalJSON implements [json.Unmarshaler]. A JSON null leaves the
// error zero, matching peers that emit both result and error members on
// every response.
func (e *Error) UnmarshalJSON(b []byte) error {
	if KindOf(b) == KindNull {
		return nil
	}

	if err := Unmarshal(b, &e.err); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	e.present = true

	return nil
}

// MarshalJSON implements [json.Marshaler]. A zero error marshals as JSON
// null so responses always carry the member.
func (e *Error) MarshalJSON() ([]byte, error) {
	if !e.present {
		return nullValue, nil
	}

	return Marshal(&e.err)
}

// InvalidParamsError describes a parameter that could not be converted to
// the type a handler declares. The server replies to these with code
// -32602 and the error's message.
type InvalidParamsError struct {
	Arg    string
	Reason string
}

// NewInvalidParamsError returns an error naming the offending argument.
func NewInvalidParamsError(arg, reason string) *InvalidParamsError {
	return &InvalidParamsError{Arg: arg, Reason: reason}
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Arg, e.Reason)
}
