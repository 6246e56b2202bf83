package render

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSON encodes results as JSON with mapping keys in traversal order.
type JSON struct{}

func (JSON) MediaType() string { return MediaJSON }

func (JSON) Encode(value any) ([]byte, error) {
	n, err := normalize(value)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(n.jsonValue())
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return body, nil
}

func (n node) jsonValue() any {
	switch n.kind {
	case nodeBool:
		return n.flag
	case nodeNumber:
		return n.number
	case nodeString:
		return n.text
	case nodeSeq:
		out := make([]any, 0, len(n.items))
		for _, item := range n.items {
			out = append(out, item.jsonValue())
		}
		return out
	case nodeMap:
		out := orderedmap.New[string, any]()
		for i, key := range n.keys {
			out.Set(key, n.items[i].jsonValue())
		}
		return out
	}
	return nil
}
