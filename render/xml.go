package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode"
)

const (
	xmlRoot = "result"
	xmlItem = "item"
)

// XML wraps the result in a <result> root. Mapping keys become child tags
// and sequence elements become repeated <item> tags.
type XML struct{}

func (XML) MediaType() string { return MediaXML }

func (XML) Encode(value any) ([]byte, error) {
	n, err := normalize(value)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := n.encodeXML(enc, xmlRoot); err != nil {
		return nil, fmt.Errorf("render xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("render xml: %w", err)
	}
	return buf.Bytes(), nil
}

func (n node) encodeXML(enc *xml.Encoder, tag string) error {
	start := xml.StartElement{Name: xml.Name{Local: tag}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	switch n.kind {
	case nodeSeq:
		for _, item := range n.items {
			if err := item.encodeXML(enc, xmlItem); err != nil {
				return err
			}
		}
	case nodeMap:
		for i, key := range n.keys {
			if err := n.items[i].encodeXML(enc, XMLName(key)); err != nil {
				return err
			}
		}
	case nodeNull:
	default:
		if err := enc.EncodeToken(xml.CharData(n.scalarText())); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// XMLName turns a mapping key into a valid element name. Invalid characters
// become underscores, and names that cannot start an element, or that start
// with the reserved "xml" prefix, get a leading underscore.
func XMLName(key string) string {
	var b strings.Builder
	for _, r := range key {
		if isNameChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		return "_"
	}
	first := []rune(name)[0]
	if !isNameStart(first) || strings.HasPrefix(strings.ToLower(name), "xml") {
		name = "_" + name
	}
	return name
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}
