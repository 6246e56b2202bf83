package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	if err := (Request{JSONRPC: Version, Method: "ping"}).Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
	for _, req := range []Request{{JSONRPC: "1.0", Method: "ping"}, {JSONRPC: Version}} {
		rpcErr, ok := FromError(req.Validate())
		if !ok || rpcErr.Code != ErrInvalidRequest {
			t.Errorf("expected invalid request for %+v, got %v", req, rpcErr)
		}
	}
}

func TestNotification(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"ping"}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !req.IsNotification() {
		t.Error("request without id should be a notification")
	}
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":0,"method":"ping"}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if req.IsNotification() {
		t.Error("request with id 0 is not a notification")
	}
}

func TestErrorResponseEncoding(t *testing.T) {
	resp := NewErrorResponse(7, NewError(ErrToolNotFound, "no tool", nil))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"jsonrpc":"2.0","id":7,"error":{"code":-32001,"message":"no tool"}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestFromError(t *testing.T) {
	err := fmt.Errorf("calling tool: %w", NewError(ErrInvalidParams, "bad", nil))
	rpcErr, ok := FromError(err)
	if !ok || rpcErr.Code != ErrInvalidParams || rpcErr.Message != "bad" {
		t.Errorf("expected wrapped invalid params error, got %+v", rpcErr)
	}

	rpcErr, ok = FromError(errors.New("disk on fire"))
	if ok {
		t.Error("plain errors should not report ok")
	}
	if rpcErr.Code != ErrInternalError || rpcErr.Message != "Internal error" {
		t.Errorf("expected generic internal error, got %+v", rpcErr)
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrParseError:     "parse_error",
		ErrToolNotFound:   "tool_not_found",
		ErrorCode(-32050): "server_error",
	}
	for code, want := range tests {
		if got := code.String(); got != want {
			t.Errorf("%d: expected %q, got %q", int(code), want, got)
		}
	}
}
