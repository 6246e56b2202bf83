// Package dispatch runs one tool call: lookup, size ceiling, decoding,
// conversion, invocation and rendering.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/slighter12/sysprop-go/logger"
	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/render"
	"github.com/slighter12/sysprop-go/schema"
	"github.com/slighter12/sysprop-go/telemetry"
)

const (
	DefaultAPIBodyBytes  int64 = 1 << 20
	DefaultFormBodyBytes int64 = 16 << 20
)

// Limits are the per-entry-point body ceilings in bytes.
type Limits struct {
	APIBodyBytes  int64
	FormBodyBytes int64
}

func DefaultLimits() Limits {
	return Limits{APIBodyBytes: DefaultAPIBodyBytes, FormBodyBytes: DefaultFormBodyBytes}
}

// For returns the ceiling for a payload source.
func (l Limits) For(source schema.Source) int64 {
	if source == schema.SourceForm {
		return l.FormBodyBytes
	}
	return l.APIBodyBytes
}

// Request is one inbound tool call.
type Request struct {
	Tool   string
	Source schema.Source
	Body   io.Reader
	// ContentLength is the declared body size, or -1 when unknown.
	ContentLength int64
	ContentType   string
	Accept        string
}

// Response is an encoded tool result.
type Response struct {
	Body      []byte
	MediaType string
	Tool      *registry.Tool
}

// Dispatcher is built once at startup and shared by all requests.
type Dispatcher struct {
	registry  *registry.Registry
	renderers *render.Set
	limits    Limits
	observer  *telemetry.Observer
}

type Option func(*Dispatcher)

func WithRenderers(set *render.Set) Option {
	return func(d *Dispatcher) { d.renderers = set }
}

func WithLimits(limits Limits) Option {
	return func(d *Dispatcher) {
		if limits.APIBodyBytes > 0 {
			d.limits.APIBodyBytes = limits.APIBodyBytes
		}
		if limits.FormBodyBytes > 0 {
			d.limits.FormBodyBytes = limits.FormBodyBytes
		}
	}
}

func WithObserver(o *telemetry.Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:  reg,
		renderers: render.DefaultSet(),
		limits:    DefaultLimits(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Registry() *registry.Registry { return d.registry }
func (d *Dispatcher) Limits() Limits               { return d.limits }

// Dispatch executes req. Failures handled here are *Error; a handler's own
// error and *render.Error are returned unchanged. Handlers run to completion:
// ctx is used for tracing only and does not cancel a running handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp *Response, err error) {
	ctx, finish := d.observer.Start(ctx, req.Tool, string(req.Source))
	defer func() { finish(outcome(err), err) }()

	tool, err := d.registry.Lookup(req.Tool)
	if err != nil {
		return nil, &Error{Kind: KindNotFound, Tool: req.Tool, Message: fmt.Sprintf("no tool named %q", req.Tool), Err: err}
	}

	body, err := d.readBody(req)
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(req, body, d.limits.For(req.Source))
	if err != nil {
		return nil, err
	}

	args, err := schema.Convert(tool.Schema(), payload)
	if err != nil {
		derr := &Error{Kind: KindValidation, Tool: req.Tool, Message: "invalid parameters", Input: payload, Err: err}
		if verr, ok := errors.AsType[*schema.ValidationError](err); ok {
			derr.Fields = verr.Fields
		}
		return nil, derr
	}

	logger.DebugContext(ctx, "Executing tool", "name", req.Tool, "source", req.Source)
	result, err := tool.Call(args)
	if err != nil {
		return nil, err
	}

	renderer, ok := d.renderers.Select(req.Accept)
	if !ok {
		return nil, &Error{
			Kind:    KindNotAcceptable,
			Tool:    req.Tool,
			Message: fmt.Sprintf("none of %s is acceptable", strings.Join(d.renderers.Offers(), ", ")),
		}
	}
	out, err := renderer.Encode(result)
	if err != nil {
		return nil, err
	}
	return &Response{Body: out, MediaType: renderer.MediaType(), Tool: tool}, nil
}

func outcome(err error) string {
	if err == nil {
		return telemetry.OutcomeOK
	}
	if e, ok := errors.AsType[*Error](err); ok {
		return string(e.Kind)
	}
	if _, ok := errors.AsType[*render.Error](err); ok {
		return "render_error"
	}
	return "handler_error"
}

// readBody enforces the ceiling before any parsing. A declared length over
// the limit is rejected without reading.
func (d *Dispatcher) readBody(req Request) ([]byte, error) {
	limit := d.limits.For(req.Source)
	tooLarge := &Error{
		Kind:    KindPayloadTooLarge,
		Tool:    req.Tool,
		Message: fmt.Sprintf("request body exceeds %d bytes", limit),
	}
	if req.ContentLength > limit {
		return nil, tooLarge
	}
	if req.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	if err != nil {
		return nil, &Error{Kind: KindBadPayload, Tool: req.Tool, Message: "failed to read request body", Err: err}
	}
	if int64(len(data)) > limit {
		return nil, tooLarge
	}
	return data, nil
}

func decodePayload(req Request, body []byte, limit int64) (schema.Payload, error) {
	badPayload := func(msg string, err error) error {
		return &Error{Kind: KindBadPayload, Tool: req.Tool, Message: msg, Err: err}
	}

	if req.Source == schema.SourceJSON {
		if len(bytes.TrimSpace(body)) == 0 {
			return schema.JSONPayload{}, nil
		}
		payload, err := schema.DecodeJSON(body)
		if err != nil {
			return nil, badPayload(err.Error(), err)
		}
		return payload, nil
	}

	mediaType, params, err := mime.ParseMediaType(req.ContentType)
	if err != nil && req.ContentType != "" {
		return nil, badPayload("invalid content type", err)
	}
	if mediaType == "multipart/form-data" {
		values, err := readMultipart(body, params["boundary"], limit)
		if err != nil {
			return nil, badPayload("malformed multipart form", err)
		}
		return schema.FormPayload(values), nil
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, badPayload("malformed form body", err)
	}
	return schema.FormPayload(values), nil
}

// readMultipart flattens a multipart form; uploaded files contribute their
// contents as the field value.
func readMultipart(body []byte, boundary string, limit int64) (url.Values, error) {
	if boundary == "" {
		return nil, errors.New("missing boundary")
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(limit)
	if err != nil {
		return nil, err
	}
	defer form.RemoveAll()

	values := url.Values{}
	for name, vs := range form.Value {
		values[name] = append(values[name], vs...)
	}
	for name, files := range form.File {
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, err
			}
			values.Add(name, string(data))
		}
	}
	return values, nil
}
