package render

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type nodeKind int

const (
	nodeNull nodeKind = iota
	nodeBool
	nodeNumber
	nodeString
	nodeSeq
	nodeMap
)

// node is the format-neutral tree every encoder walks, so all formats share
// one traversal order.
type node struct {
	kind   nodeKind
	flag   bool
	number any // int64, uint64 or float64
	text   string
	keys   []string // nodeMap only, parallel to items
	items  []node
}

// scalarText is the text form used by the XML and HTML encoders.
func (n node) scalarText() string {
	switch n.kind {
	case nodeBool:
		return strconv.FormatBool(n.flag)
	case nodeNumber:
		switch v := n.number.(type) {
		case int64:
			return strconv.FormatInt(v, 10)
		case uint64:
			return strconv.FormatUint(v, 10)
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case nodeString:
		return n.text
	}
	return ""
}

func normalize(value any) (node, error) {
	return normalizeAt(value, "$")
}

func normalizeAt(value any, path string) (node, error) {
	switch v := value.(type) {
	case nil:
		return node{kind: nodeNull}, nil
	case Canonical:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return node{kind: nodeNull}, nil
		}
		return node{kind: nodeString, text: v.CanonicalString()}, nil
	case bool:
		return node{kind: nodeBool, flag: v}, nil
	case string:
		return node{kind: nodeString, text: v}, nil
	case float64:
		return floatNode(v, path)
	case float32:
		return floatNode(float64(v), path)
	case *orderedmap.OrderedMap[string, any]:
		if v == nil {
			return node{kind: nodeNull}, nil
		}
		out := node{kind: nodeMap}
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			child, err := normalizeAt(pair.Value, path+"."+pair.Key)
			if err != nil {
				return node{}, err
			}
			out.keys = append(out.keys, pair.Key)
			out.items = append(out.items, child)
		}
		return out, nil
	}
	return normalizeReflect(reflect.ValueOf(value), path)
}

func floatNode(f float64, path string) (node, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return node{}, &Error{Path: path, Type: "float64", Err: ErrNonFinite}
	}
	return node{kind: nodeNumber, number: f}, nil
}

func normalizeReflect(rv reflect.Value, path string) (node, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return node{kind: nodeNumber, number: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return node{kind: nodeNumber, number: rv.Uint()}, nil
	case reflect.Float32, reflect.Float64:
		return floatNode(rv.Float(), path)
	case reflect.Bool:
		return node{kind: nodeBool, flag: rv.Bool()}, nil
	case reflect.String:
		return node{kind: nodeString, text: rv.String()}, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return node{kind: nodeNull}, nil
		}
		return normalizeAt(rv.Elem().Interface(), path)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return node{kind: nodeSeq}, nil
		}
		out := node{kind: nodeSeq, items: make([]node, 0, rv.Len())}
		for i := range rv.Len() {
			child, err := normalizeAt(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return node{}, err
			}
			out.items = append(out.items, child)
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		out := node{kind: nodeMap, keys: keys, items: make([]node, 0, len(keys))}
		for _, k := range keys {
			child, err := normalizeAt(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), path+"."+k)
			if err != nil {
				return node{}, err
			}
			out.items = append(out.items, child)
		}
		return out, nil
	case reflect.Invalid:
		return node{kind: nodeNull}, nil
	}
	return node{}, &Error{Path: path, Type: rv.Type().String(), Err: ErrUnsupported}
}
