package render

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type smiles string

func (s smiles) CanonicalString() string { return string(s) }

func densityFixture() *orderedmap.OrderedMap[string, any] {
	m := orderedmap.New[string, any]()
	m.Set("density", 1.02)
	m.Set("components", []string{"water", "ethanol"})
	return m
}

func TestJSONRoundTrip(t *testing.T) {
	value := map[string]any{
		"density":    1.0200000000000002,
		"count":      3.0,
		"ok":         true,
		"missing":    nil,
		"components": []any{"water", "ethanol", []any{1.5, -2.0}},
		"nested":     map[string]any{"a": "b<c>", "z": []any{}},
	}
	body, err := JSON{}.Encode(value)
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, value, decoded)
}

func TestJSONKeepsInsertionOrder(t *testing.T) {
	body, err := JSON{}.Encode(densityFixture())
	require.NoError(t, err)
	assert.JSONEq(t, `{"density":1.02,"components":["water","ethanol"]}`, string(body))
	assert.Less(t, strings.Index(string(body), "density"), strings.Index(string(body), "components"))
}

func TestJSONSortsPlainMaps(t *testing.T) {
	body, err := JSON{}.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(body))
}

func TestJSONCanonicalValues(t *testing.T) {
	m := orderedmap.New[string, any]()
	m.Set("molecule", smiles("CCO"))
	m.Set("samples", []float64{273.15, 298.15})
	body, err := JSON{}.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, `{"molecule":"CCO","samples":[273.15,298.15]}`, string(body))
}

func TestEncodersRejectUnsupportedValues(t *testing.T) {
	encoders := []Renderer{JSON{}, XML{}, HTML{}}
	values := map[string]any{
		"channel": make(chan int),
		"struct":  struct{ A int }{A: 1},
		"nan":     map[string]any{"x": []any{math.NaN()}},
		"inf":     math.Inf(1),
		"intkeys": map[int]string{1: "a"},
	}
	for name, value := range values {
		for _, enc := range encoders {
			_, err := enc.Encode(value)
			renderErr, ok := errors.AsType[*Error](err)
			require.True(t, ok, "%s via %s: %v", name, enc.MediaType(), err)
			assert.NotEmpty(t, renderErr.Path)
		}
	}

	_, err := JSON{}.Encode(map[string]any{"x": []any{math.NaN()}})
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.Contains(t, err.Error(), "$.x[0]")
}

// xmlShape parses an XML document back into nested maps and slices,
// treating <item> children as sequence elements.
type xmlElem struct {
	XMLName  xml.Name
	Children []xmlElem `xml:",any"`
	Text     string    `xml:",chardata"`
}

func (e xmlElem) shape() any {
	if len(e.Children) == 0 {
		return e.Text
	}
	if e.Children[0].XMLName.Local == "item" {
		out := make([]any, 0, len(e.Children))
		for _, c := range e.Children {
			out = append(out, c.shape())
		}
		return out
	}
	out := make(map[string]any, len(e.Children))
	for _, c := range e.Children {
		out[c.XMLName.Local] = c.shape()
	}
	return out
}

func (e xmlElem) order() []string {
	var names []string
	for _, c := range e.Children {
		names = append(names, c.XMLName.Local)
		names = append(names, c.order()...)
	}
	return names
}

func jsonOrder(t *testing.T, body []byte) []string {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(string(body)))
	var names []string
	var stack []bool // true when inside an object
	expectKey := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, true)
				expectKey = true
				continue
			case '[':
				stack = append(stack, false)
			case '}', ']':
				stack = stack[:len(stack)-1]
			}
		case string:
			if expectKey {
				names = append(names, v)
				expectKey = false
				continue
			}
			if !stack[len(stack)-1] {
				names = append(names, "item")
			}
		default:
			if !stack[len(stack)-1] {
				names = append(names, "item")
			}
		}
		expectKey = len(stack) > 0 && stack[len(stack)-1]
	}
	return names
}

func TestXMLMirrorsJSONOrder(t *testing.T) {
	fixture := densityFixture()

	jsonBody, err := JSON{}.Encode(fixture)
	require.NoError(t, err)
	xmlBody, err := XML{}.Encode(fixture)
	require.NoError(t, err)

	var root xmlElem
	require.NoError(t, xml.Unmarshal(xmlBody, &root))
	assert.Equal(t, "result", root.XMLName.Local)

	want := []string{"density", "components", "item", "item"}
	assert.Equal(t, want, jsonOrder(t, jsonBody))
	assert.Equal(t, want, root.order())

	assert.Equal(t, map[string]any{
		"density":    "1.02",
		"components": []any{"water", "ethanol"},
	}, root.shape())
}

func TestXMLSanitizesTags(t *testing.T) {
	m := orderedmap.New[string, any]()
	m.Set("2nd value", 1)
	m.Set("xmlish", "a&b")
	m.Set("", nil)
	body, err := XML{}.Encode(m)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, "<_2nd_value>1</_2nd_value>")
	assert.Contains(t, out, "<_xmlish>a&amp;b</_xmlish>")
	assert.Contains(t, out, "<_></_>")
}

func TestXMLName(t *testing.T) {
	tests := map[string]string{
		"density":     "density",
		"mole-frac.1": "mole-frac.1",
		"-x":          "_-x",
		"a b/c":       "a_b_c",
		"XMLData":     "_XMLData",
		"":            "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, XMLName(in), in)
	}
}

func TestHTMLFragment(t *testing.T) {
	m := densityFixture()
	m.Set("note", "<b>")
	m.Set("none", nil)
	body, err := HTML{}.Encode(m)
	require.NoError(t, err)

	assert.Equal(t,
		`<table class="result-mapping"><tbody>`+
			`<tr><th>density</th><td><span class="result-scalar">1.02</span></td></tr>`+
			`<tr><th>components</th><td><ol class="result-sequence">`+
			`<li><span class="result-scalar">water</span></li>`+
			`<li><span class="result-scalar">ethanol</span></li></ol></td></tr>`+
			`<tr><th>note</th><td><span class="result-scalar">&lt;b&gt;</span></td></tr>`+
			`<tr><th>none</th><td><span class="result-scalar result-null"></span></td></tr>`+
			`</tbody></table>`,
		string(body))
}

func TestHTMLScalar(t *testing.T) {
	body, err := HTML{}.Encode(42)
	require.NoError(t, err)
	assert.Equal(t, `<span class="result-scalar">42</span>`, string(body))
}

func TestNegotiate(t *testing.T) {
	offers := []string{MediaJSON, MediaXML, MediaHTML}
	tests := []struct {
		accept string
		want   string
		ok     bool
	}{
		{"", MediaJSON, true},
		{"*/*", MediaJSON, true},
		{"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", MediaHTML, true},
		{"application/xml", MediaXML, true},
		{"application/*;q=0.5, text/html;q=0.4", MediaJSON, true},
		{"application/json;q=0, */*;q=0.1", MediaXML, true},
		{"text/*", MediaHTML, true},
		{"image/png", "", false},
		{"application/json;q=0", "", false},
		{"garbage;;", MediaJSON, false},
	}
	for _, tt := range tests {
		got, ok := Negotiate(tt.accept, offers)
		assert.Equal(t, tt.ok, ok, tt.accept)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.accept)
		}
	}
}

func TestSetSelect(t *testing.T) {
	set := DefaultSet()
	assert.Equal(t, []string{MediaJSON, MediaXML, MediaHTML}, set.Offers())

	r, ok := set.Select("application/xml")
	require.True(t, ok)
	assert.Equal(t, MediaXML, r.MediaType())

	_, ok = set.Select("image/png")
	assert.False(t, ok)

	jsonOnly := NewSet(JSON{})
	_, ok = jsonOnly.Select("text/html")
	assert.False(t, ok)
}
