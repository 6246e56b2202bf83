// Package jsonrpc holds the JSON-RPC 2.0 envelope used by the stdio transport.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

const Version = "2.0"

// Request represents a JSON-RPC request. A request without an ID is a
// notification and gets no response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the sender expects no response.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Validate checks the envelope fields every request must carry.
func (r Request) Validate() error {
	if r.JSONRPC != Version {
		return NewError(ErrInvalidRequest, fmt.Sprintf("unsupported jsonrpc version %q", r.JSONRPC), nil)
	}
	if r.Method == "" {
		return NewError(ErrInvalidRequest, "method is required", nil)
	}
	return nil
}

// Response represents a JSON-RPC response
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// NewResponse creates a new JSON-RPC response
func NewResponse(id any, result any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates a new JSON-RPC error response
func NewErrorResponse(id any, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   err,
	}
}
