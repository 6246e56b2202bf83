package jsonrpc

import "errors"

type ErrorCode int

// JSON-RPC 2.0 Error Codes
const (
	ErrParseError     ErrorCode = -32700
	ErrInvalidRequest ErrorCode = -32600
	ErrMethodNotFound ErrorCode = -32601
	ErrInvalidParams  ErrorCode = -32602
	ErrInternalError  ErrorCode = -32603

	// Tool call failures, from the server range -32000..-32099.
	ErrToolNotFound    ErrorCode = -32001
	ErrPayloadTooLarge ErrorCode = -32002
	ErrNotAcceptable   ErrorCode = -32003
)

var codeNames = map[ErrorCode]string{
	ErrParseError:      "parse_error",
	ErrInvalidRequest:  "invalid_request",
	ErrMethodNotFound:  "method_not_found",
	ErrInvalidParams:   "invalid_params",
	ErrInternalError:   "internal_error",
	ErrToolNotFound:    "tool_not_found",
	ErrPayloadTooLarge: "payload_too_large",
	ErrNotAcceptable:   "not_acceptable",
}

// String names the code for logs.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "server_error"
}

// Error is both the wire form of a JSON-RPC error and a Go error.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func NewError(code ErrorCode, message string, data any) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func (e *Error) Error() string {
	return e.Message
}

// FromError returns the *Error in err's chain. Any other error becomes a
// bare internal error and ok is false; its text is not copied.
func FromError(err error) (rpcErr *Error, ok bool) {
	if e, ok := errors.AsType[*Error](err); ok {
		return e, true
	}
	return NewError(ErrInternalError, "Internal error", nil), false
}
