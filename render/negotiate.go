package render

import (
	"mime"
	"strconv"
	"strings"
)

type mediaRange struct {
	typ, subtype string
	q            float64
}

func (m mediaRange) specificity() int {
	switch {
	case m.typ == "*":
		return 0
	case m.subtype == "*":
		return 1
	}
	return 2
}

func (m mediaRange) matches(typ, subtype string) bool {
	return (m.typ == "*" || m.typ == typ) && (m.subtype == "*" || m.subtype == subtype)
}

// parseAccept parses an Accept header, dropping malformed ranges. An empty
// header accepts anything.
func parseAccept(accept string) []mediaRange {
	if strings.TrimSpace(accept) == "" {
		return []mediaRange{{typ: "*", subtype: "*", q: 1}}
	}
	var ranges []mediaRange
	for part := range strings.SplitSeq(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mediaType, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		typ, subtype, ok := strings.Cut(mediaType, "/")
		if !ok || (typ == "*" && subtype != "*") {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v < 0 || v > 1 {
				continue
			}
			q = v
		}
		ranges = append(ranges, mediaRange{typ: typ, subtype: subtype, q: q})
	}
	return ranges
}

// Negotiate picks the offer the Accept header prefers. Each offer takes the
// quality of its most specific matching range; equal qualities keep the
// order of offers. It reports false when nothing is acceptable.
func Negotiate(accept string, offers []string) (string, bool) {
	ranges := parseAccept(accept)

	best, bestQ := "", 0.0
	for _, offer := range offers {
		typ, subtype, ok := strings.Cut(strings.ToLower(offer), "/")
		if !ok {
			continue
		}
		q, spec := 0.0, -1
		for _, r := range ranges {
			if r.matches(typ, subtype) && r.specificity() > spec {
				q, spec = r.q, r.specificity()
			}
		}
		if q > bestQ {
			best, bestQ = offer, q
		}
	}
	return best, bestQ > 0
}
