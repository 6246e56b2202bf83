package schema

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorCheck(t *testing.T) {
	tests := []struct {
		name  string
		v     Validator
		value any
		want  string
	}{
		{"between ok", Between(200, 400), 300.0, ""},
		{"between low", Between(200, 400), 100.0, "Number must be between 200 and 400."},
		{"at least int", AtLeast(0), -1, "Number must be at least 0."},
		{"at most", AtMost(1.5), 2.0, "Number must be at most 1.5."},
		{"length ok", Length(1, 3), "abc", ""},
		{"length long", Length(-1, 2), "abc", "Field cannot be longer than 2 characters."},
		{"length short", Length(2, -1), "a", "Field must be at least 2 characters long."},
		{"regexp", Regexp(`^[A-Z]+$`), "abc", "Invalid input."},
		{"email ok", Email(), "user@example.org", ""},
		{"email bad", Email(), "user@localhost", "Invalid email address."},
		{"url ok", URL(), "https://example.org/x", ""},
		{"url bad", URL(), "example.org", "Invalid URL."},
		{"ipv4 ok", IPAddress(true, false), "192.0.2.1", ""},
		{"ipv6 disabled", IPAddress(true, false), "2001:db8::1", "Invalid IP address."},
		{"ipv6 ok", IPAddress(false, true), "2001:db8::1", ""},
		{"mac ok", MACAddress(), "00:1a:2b:3c:4d:5e", ""},
		{"mac bad", MACAddress(), "00:1a", "Invalid Mac address."},
		{"uuid ok", UUID(), "6ba7b810-9dad-11d1-80b4-00c04fd430c8", ""},
		{"uuid bad", UUID(), "nope", "Invalid UUID."},
		{"any of ok", AnyOf("K", "C", "F"), "C", ""},
		{"any of bad", AnyOf("K", "C", "F"), "R", "Invalid value, must be one of: K, C, F."},
		{"none of", NoneOf(0, 1), 1.0, "Invalid value, can't be any of: 0, 1."},
		{"override", Between(0, 1).WithMessage("out of range"), 2.0, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.check(tt.value))
		})
	}
}

func TestRegexpValidatorUsesCanonicalString(t *testing.T) {
	v := Validator{Kind: ValidatorRegexp, Pattern: regexp.MustCompile(`^C+$`)}
	assert.Empty(t, v.check(textValue("CCC")))
	assert.NotEmpty(t, v.check(textValue("CCO")))
}

type textValue string

func (v textValue) CanonicalString() string { return string(v) }
