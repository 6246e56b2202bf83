// Package stdio serves the tool catalogue as newline-delimited JSON-RPC 2.0
// over a pair of streams, usually stdin and stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/slighter12/sysprop-go/dispatch"
	"github.com/slighter12/sysprop-go/jsonrpc"
	"github.com/slighter12/sysprop-go/logger"
	"github.com/slighter12/sysprop-go/render"
	"github.com/slighter12/sysprop-go/schema"
)

const (
	MethodPing      = "ping"
	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"
)

// lineOverhead is the room left on a line for the envelope around arguments.
const lineOverhead = 64 << 10

// Server handles JSON-RPC communication over a reader/writer pair.
type Server struct {
	dispatcher *dispatch.Dispatcher
	in         io.Reader
	out        io.Writer
}

// NewServer creates a new stdio server
func NewServer(dispatcher *dispatch.Dispatcher, in io.Reader, out io.Writer) *Server {
	return &Server{
		dispatcher: dispatcher,
		in:         in,
		out:        out,
	}
}

// ToolInfo describes one tool in a tools/list result.
type ToolInfo struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Doc    string   `json:"doc"`
	Params []string `json:"params"`
}

// CallParams are the params of a tools/call request.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	// Accept selects the result encoding; JSON when empty.
	Accept string `json:"accept,omitempty"`
}

// CallResult is the result of a tools/call request. Content is inlined JSON
// for application/json and a string for every other media type.
type CallResult struct {
	MediaType string `json:"media_type"`
	Content   any    `json:"content"`
}

// Serve reads one request per line until EOF or ctx is cancelled. Requests
// are handled in order. Cancellation is checked between lines.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	maxLine := int(s.dispatcher.Limits().APIBodyBytes) + lineOverhead
	scanner.Buffer(make([]byte, 0, 64<<10), maxLine)
	encoder := json.NewEncoder(s.out)

	logger.Debug("Stdio server started and waiting for messages")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		response := s.handleLine(ctx, line)
		if response == nil {
			continue
		}
		if err := encoder.Encode(response); err != nil {
			return fmt.Errorf("stdio: write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			_ = encoder.Encode(jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.ErrPayloadTooLarge, "request line too long", nil)))
		}
		return fmt.Errorf("stdio: read request: %w", err)
	}
	logger.Debug("Stdio EOF received, terminating server")
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) *jsonrpc.Response {
	var req jsonrpc.Request
	if err := json.Unmarshal(line, &req); err != nil {
		logger.Debug("Error decoding message", "error", err)
		return jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.ErrParseError, "Parse error", nil))
	}
	if err := req.Validate(); err != nil {
		rpcErr, _ := jsonrpc.FromError(err)
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}

	logger.Debug("Stdio message received", "method", req.Method, "id", req.ID)
	result, err := s.handleMessage(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		rpcErr, ok := jsonrpc.FromError(err)
		if ok {
			logger.Debug("Stdio request rejected", "method", req.Method, "code", rpcErr.Code.String(), "error", err)
		} else {
			logger.Error("Stdio tool call failed", "method", req.Method, "error", err)
		}
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}
	return jsonrpc.NewResponse(req.ID, result)
}

func (s *Server) handleMessage(ctx context.Context, req jsonrpc.Request) (any, error) {
	switch req.Method {
	case MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return s.handleToolsList(), nil
	case MethodToolsCall:
		return s.handleToolCall(ctx, req.Params)
	default:
		return nil, jsonrpc.NewError(jsonrpc.ErrMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

func (s *Server) handleToolsList() map[string][]ToolInfo {
	tools := s.dispatcher.Registry().List()
	infos := make([]ToolInfo, 0, len(tools))
	for _, tool := range tools {
		infos = append(infos, ToolInfo{
			Name:   tool.Name(),
			Title:  tool.Summary(),
			Doc:    tool.Detail(),
			Params: tool.Schema().Names(),
		})
	}
	return map[string][]ToolInfo{"tools": infos}
}

func (s *Server) handleToolCall(ctx context.Context, raw json.RawMessage) (*CallResult, error) {
	var params CallParams
	if len(raw) == 0 {
		return nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, "params are required", nil)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, jsonrpc.NewError(jsonrpc.ErrInvalidParams, "invalid tool call params", nil)
	}
	if params.Accept == "" {
		params.Accept = render.MediaJSON
	}

	resp, err := s.dispatcher.Dispatch(ctx, dispatch.Request{
		Tool:          params.Name,
		Source:        schema.SourceJSON,
		Body:          bytes.NewReader(params.Arguments),
		ContentLength: int64(len(params.Arguments)),
		Accept:        params.Accept,
	})
	if err != nil {
		return nil, toRPCError(err)
	}

	result := &CallResult{MediaType: resp.MediaType, Content: string(resp.Body)}
	if resp.MediaType == render.MediaJSON {
		result.Content = json.RawMessage(resp.Body)
	}
	return result, nil
}

// errorData is the data member of a dispatch failure.
type errorData struct {
	Kind   dispatch.Kind       `json:"kind"`
	Tool   string              `json:"tool,omitempty"`
	Fields []schema.FieldError `json:"fields,omitempty"`
}

func toRPCError(err error) error {
	derr, ok := errors.AsType[*dispatch.Error](err)
	if !ok {
		return err
	}
	data := errorData{Kind: derr.Kind, Tool: derr.Tool, Fields: derr.Fields}
	code := jsonrpc.ErrInternalError
	switch {
	case dispatch.IsNotFound(err):
		code = jsonrpc.ErrToolNotFound
	case dispatch.IsPayloadTooLarge(err):
		code = jsonrpc.ErrPayloadTooLarge
	case dispatch.IsBadPayload(err), dispatch.IsValidation(err):
		code = jsonrpc.ErrInvalidParams
	case dispatch.IsNotAcceptable(err):
		code = jsonrpc.ErrNotAcceptable
	}
	return jsonrpc.NewError(code, derr.Message, data)
}
