package schema

import (
	"fmt"
	"net"
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ValidatorKind tags the Validator variant.
type ValidatorKind string

const (
	ValidatorRequired    ValidatorKind = "required"
	ValidatorOptional    ValidatorKind = "optional"
	ValidatorNumberRange ValidatorKind = "number_range"
	ValidatorLength      ValidatorKind = "length"
	ValidatorRegexp      ValidatorKind = "regexp"
	ValidatorEmail       ValidatorKind = "email"
	ValidatorURL         ValidatorKind = "url"
	ValidatorIPAddress   ValidatorKind = "ip_address"
	ValidatorMACAddress  ValidatorKind = "mac_address"
	ValidatorUUID        ValidatorKind = "uuid"
	ValidatorAnyOf       ValidatorKind = "any_of"
	ValidatorNoneOf      ValidatorKind = "none_of"
	ValidatorEqualTo     ValidatorKind = "equal_to"
)

// Validator is one declarative constraint. Only the fields relevant to Kind are set.
type Validator struct {
	Kind ValidatorKind

	Min *float64
	Max *float64

	MinLen int // -1 when unbounded
	MaxLen int // -1 when unbounded

	Pattern *regexp.Regexp
	IPv4    bool
	IPv6    bool
	Values  []any
	Other   string

	Message string
}

// WithMessage overrides the default failure message.
func (v Validator) WithMessage(msg string) Validator {
	v.Message = msg
	return v
}

func Required() Validator { return Validator{Kind: ValidatorRequired} }
func Optional() Validator { return Validator{Kind: ValidatorOptional} }

// NumberRange bounds a numeric value; nil leaves that side open.
func NumberRange(min, max *float64) Validator {
	return Validator{Kind: ValidatorNumberRange, Min: min, Max: max}
}

func Between(min, max float64) Validator { return NumberRange(&min, &max) }
func AtLeast(min float64) Validator       { return NumberRange(&min, nil) }
func AtMost(max float64) Validator        { return NumberRange(nil, &max) }

// Length bounds the character count of a string; -1 leaves that side open.
func Length(min, max int) Validator {
	return Validator{Kind: ValidatorLength, MinLen: min, MaxLen: max}
}

// Regexp panics on an invalid pattern; validators are declared statically.
func Regexp(pattern string) Validator {
	return Validator{Kind: ValidatorRegexp, Pattern: regexp.MustCompile(pattern)}
}

func Email() Validator      { return Validator{Kind: ValidatorEmail} }
func URL() Validator        { return Validator{Kind: ValidatorURL} }
func MACAddress() Validator { return Validator{Kind: ValidatorMACAddress} }
func UUID() Validator       { return Validator{Kind: ValidatorUUID} }

// IPAddress accepts the enabled families. With both false only IPv4 is accepted.
func IPAddress(ipv4, ipv6 bool) Validator {
	if !ipv4 && !ipv6 {
		ipv4 = true
	}
	return Validator{Kind: ValidatorIPAddress, IPv4: ipv4, IPv6: ipv6}
}

func AnyOf(values ...any) Validator  { return Validator{Kind: ValidatorAnyOf, Values: values} }
func NoneOf(values ...any) Validator { return Validator{Kind: ValidatorNoneOf, Values: values} }

// EqualTo requires the value to match another field of the same request.
func EqualTo(other string) Validator { return Validator{Kind: ValidatorEqualTo, Other: other} }

// check applies a value validator to a converted value. It returns the
// failure message, or "" on success. Presence validators and EqualTo are
// handled by the engine.
func (v Validator) check(value any) string {
	switch v.Kind {
	case ValidatorNumberRange:
		n, ok := asFloat(value)
		if !ok || (v.Min != nil && n < *v.Min) || (v.Max != nil && n > *v.Max) {
			return v.message(v.numberRangeMessage())
		}
	case ValidatorLength:
		n := len([]rune(textOf(value)))
		if (v.MinLen >= 0 && n < v.MinLen) || (v.MaxLen >= 0 && n > v.MaxLen) {
			return v.message(v.lengthMessage())
		}
	case ValidatorRegexp:
		if v.Pattern == nil || !v.Pattern.MatchString(textOf(value)) {
			return v.message("Invalid input.")
		}
	case ValidatorEmail:
		text := textOf(value)
		addr, err := mail.ParseAddress(text)
		if err != nil || addr.Address != text || !strings.Contains(text[strings.LastIndex(text, "@")+1:], ".") {
			return v.message("Invalid email address.")
		}
	case ValidatorURL:
		u, err := url.Parse(textOf(value))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return v.message("Invalid URL.")
		}
	case ValidatorIPAddress:
		addr, err := netip.ParseAddr(textOf(value))
		if err != nil || (addr.Is4() && !v.IPv4) || (addr.Is6() && !v.IPv6) {
			return v.message("Invalid IP address.")
		}
	case ValidatorMACAddress:
		if _, err := net.ParseMAC(textOf(value)); err != nil {
			return v.message("Invalid Mac address.")
		}
	case ValidatorUUID:
		if _, err := uuid.Parse(textOf(value)); err != nil {
			return v.message("Invalid UUID.")
		}
	case ValidatorAnyOf:
		if !containsValue(v.Values, value) {
			return v.message(fmt.Sprintf("Invalid value, must be one of: %s.", joinValues(v.Values)))
		}
	case ValidatorNoneOf:
		if containsValue(v.Values, value) {
			return v.message(fmt.Sprintf("Invalid value, can't be any of: %s.", joinValues(v.Values)))
		}
	}
	return ""
}

func (v Validator) message(fallback string) string {
	if v.Message != "" {
		return v.Message
	}
	return fallback
}

func (v Validator) numberRangeMessage() string {
	switch {
	case v.Min != nil && v.Max != nil:
		return fmt.Sprintf("Number must be between %s and %s.", formatNumber(*v.Min), formatNumber(*v.Max))
	case v.Min != nil:
		return fmt.Sprintf("Number must be at least %s.", formatNumber(*v.Min))
	case v.Max != nil:
		return fmt.Sprintf("Number must be at most %s.", formatNumber(*v.Max))
	}
	return "Not a valid number."
}

func (v Validator) lengthMessage() string {
	switch {
	case v.MinLen >= 0 && v.MaxLen >= 0:
		return fmt.Sprintf("Field must be between %d and %d characters long.", v.MinLen, v.MaxLen)
	case v.MinLen >= 0:
		return fmt.Sprintf("Field must be at least %d characters long.", v.MinLen)
	default:
		return fmt.Sprintf("Field cannot be longer than %d characters.", v.MaxLen)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func textOf(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case Structured:
		return v.CanonicalString()
	case float64:
		return formatNumber(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(value)
}

// equalValues compares converted values, treating int and float64 as numbers.
func equalValues(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	if sa, ok := a.(Structured); ok {
		sb, ok := b.(Structured)
		return ok && sa.CanonicalString() == sb.CanonicalString()
	}
	if fa, ok := a.([]float64); ok {
		fb, ok := b.([]float64)
		if !ok || len(fa) != len(fb) {
			return false
		}
		for i := range fa {
			if fa[i] != fb[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

func containsValue(values []any, value any) bool {
	for _, candidate := range values {
		if equalValues(candidate, value) {
			return true
		}
	}
	return false
}

func joinValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, textOf(v))
	}
	return strings.Join(parts, ", ")
}
