// Package render encodes tool results as JSON, XML or HTML and negotiates
// between them.
package render

import (
	"errors"
	"fmt"
)

const (
	MediaJSON = "application/json"
	MediaXML  = "application/xml"
	MediaHTML = "text/html"
)

var (
	ErrUnsupported = errors.New("unsupported value kind")
	ErrNonFinite   = errors.New("non-finite float")
)

// Canonical is an opaque structured value serialized through its canonical text.
type Canonical interface {
	CanonicalString() string
}

// Error reports a value no encoder can represent.
type Error struct {
	Path string
	Type string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render: %v: %s at %s", e.Err, e.Type, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Renderer encodes a result into a body of its media type.
type Renderer interface {
	MediaType() string
	Encode(value any) ([]byte, error)
}

// Set is an ordered group of renderers. The order breaks negotiation ties.
type Set struct {
	renderers []Renderer
}

func NewSet(renderers ...Renderer) *Set {
	return &Set{renderers: append([]Renderer(nil), renderers...)}
}

// DefaultSet offers JSON, XML and HTML in that order.
func DefaultSet() *Set {
	return NewSet(JSON{}, XML{}, HTML{})
}

// Offers lists media types in preference order.
func (s *Set) Offers() []string {
	offers := make([]string, 0, len(s.renderers))
	for _, r := range s.renderers {
		offers = append(offers, r.MediaType())
	}
	return offers
}

// Get returns the renderer for an exact media type.
func (s *Set) Get(mediaType string) (Renderer, bool) {
	for _, r := range s.renderers {
		if r.MediaType() == mediaType {
			return r, true
		}
	}
	return nil, false
}

// Select negotiates accept against the set.
func (s *Set) Select(accept string) (Renderer, bool) {
	mediaType, ok := Negotiate(accept, s.Offers())
	if !ok {
		return nil, false
	}
	return s.Get(mediaType)
}
