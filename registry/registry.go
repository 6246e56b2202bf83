// Package registry holds the immutable catalogue of callable tools.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/slighter12/sysprop-go/schema"
)

// ReservedName is the scaffold entry that is never exposed.
const ReservedName = "template"

var ErrToolNotFound = errors.New("tool not found")

func IsToolNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}

// Handler computes a tool result from converted arguments.
type Handler func(args schema.Args) (any, error)

// Candidate is a tool offered for registration. Candidates missing a handler
// or schema are skipped during discovery.
type Candidate struct {
	Name    string
	Summary string
	Detail  string
	Handler Handler
	Schema  *schema.Schema
}

// Tool is a registered, read-only tool descriptor.
type Tool struct {
	name    string
	summary string
	detail  string
	handler Handler
	schema  *schema.Schema
}

func (t *Tool) Name() string           { return t.name }
func (t *Tool) Summary() string        { return t.summary }
func (t *Tool) Detail() string         { return t.detail }
func (t *Tool) Schema() *schema.Schema { return t.schema }

// Call invokes the handler. Errors are returned unchanged.
func (t *Tool) Call(args schema.Args) (any, error) {
	return t.handler(args)
}

// Registry maps names to tools. It is never mutated after Discover returns,
// so concurrent readers need no locking.
type Registry struct {
	tools map[string]*Tool
	order []*Tool
}

type options struct {
	exclude []string
	log     *slog.Logger
}

// Option configures Discover.
type Option func(*options)

// WithExclude skips candidates whose name matches any glob pattern.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		for _, p := range patterns {
			if p = strings.TrimSpace(p); p != "" {
				o.exclude = append(o.exclude, p)
			}
		}
	}
}

// WithLogger sets the logger used for discovery diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Discover builds a registry from candidates in order. Incomplete candidates,
// the reserved name and excluded names are skipped; the first of several
// candidates sharing a name wins.
func Discover(candidates []Candidate, opts ...Option) *Registry {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{tools: make(map[string]*Tool, len(candidates))}
	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "" || c.Handler == nil || c.Schema == nil:
			o.log.Debug("Skipping incomplete tool candidate", "name", name)
			continue
		case name == ReservedName:
			continue
		case excluded(name, o.exclude):
			o.log.Debug("Skipping excluded tool", "name", name)
			continue
		}
		if _, exists := r.tools[name]; exists {
			o.log.Warn("Duplicate tool name, keeping first registration", "name", name)
			continue
		}

		tool := &Tool{
			name:    name,
			summary: strings.TrimSpace(c.Summary),
			detail:  strings.TrimSpace(c.Detail),
			handler: c.Handler,
			schema:  c.Schema,
		}
		r.tools[name] = tool
		r.order = append(r.order, tool)
	}
	o.log.Info("Tools discovered", "count", len(r.order))
	return r
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Lookup returns the named tool or ErrToolNotFound.
func (r *Registry) Lookup(name string) (*Tool, error) {
	if tool, ok := r.tools[name]; ok {
		return tool, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// List returns tools in discovery order.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
