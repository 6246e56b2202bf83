package render

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	ClassMapping  = "result-mapping"
	ClassSequence = "result-sequence"
	ClassScalar   = "result-scalar"
	ClassNull     = "result-null"
)

// HTML produces a fragment for embedding in a page: mappings as label/value
// table rows, sequences as ordered lists, scalars as spans.
type HTML struct{}

func (HTML) MediaType() string { return MediaHTML }

func (HTML) Encode(value any) ([]byte, error) {
	n, err := normalize(value)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n.htmlNode()); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func element(a atom.Atom, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func (n node) htmlNode() *html.Node {
	switch n.kind {
	case nodeMap:
		table := element(atom.Table, ClassMapping)
		body := element(atom.Tbody, "")
		table.AppendChild(body)
		for i, key := range n.keys {
			row := element(atom.Tr, "")
			th := element(atom.Th, "")
			th.AppendChild(text(key))
			td := element(atom.Td, "")
			td.AppendChild(n.items[i].htmlNode())
			row.AppendChild(th)
			row.AppendChild(td)
			body.AppendChild(row)
		}
		return table
	case nodeSeq:
		list := element(atom.Ol, ClassSequence)
		for _, item := range n.items {
			li := element(atom.Li, "")
			li.AppendChild(item.htmlNode())
			list.AppendChild(li)
		}
		return list
	case nodeNull:
		return element(atom.Span, ClassScalar+" "+ClassNull)
	}
	span := element(atom.Span, ClassScalar)
	span.AppendChild(text(n.scalarText()))
	return span
}
