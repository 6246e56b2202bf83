// Package molecule wraps SMILES text as an opaque structured value.
//
// Only the surface syntax is checked. No chemistry is performed beyond
// counting the element symbols that appear in the string.
package molecule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrEmpty  = errors.New("molecule is empty")
	ErrSyntax = errors.New("invalid SMILES")
)

var smilesCharset = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$%/\\.:*~]+$`)

// Molecule is a parsed SMILES string.
type Molecule struct {
	text string
}

// Parse validates the SMILES surface syntax of s.
func Parse(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmpty
	}
	if !smilesCharset.MatchString(s) {
		return nil, fmt.Errorf("%w: unexpected character in %q", ErrSyntax, s)
	}
	if err := checkBalanced(s); err != nil {
		return nil, err
	}
	return &Molecule{text: s}, nil
}

func checkBalanced(s string) error {
	depth := 0
	inBracket := false
	for _, r := range s {
		switch r {
		case '(':
			if inBracket {
				return fmt.Errorf("%w: branch inside bracket atom", ErrSyntax)
			}
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced parentheses", ErrSyntax)
			}
		case '[':
			if inBracket {
				return fmt.Errorf("%w: nested bracket atom", ErrSyntax)
			}
			inBracket = true
		case ']':
			if !inBracket {
				return fmt.Errorf("%w: unbalanced brackets", ErrSyntax)
			}
			inBracket = false
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced parentheses", ErrSyntax)
	}
	if inBracket {
		return fmt.Errorf("%w: unbalanced brackets", ErrSyntax)
	}
	return nil
}

// CanonicalString returns the SMILES text.
func (m *Molecule) CanonicalString() string {
	if m == nil {
		return ""
	}
	return m.text
}

func (m *Molecule) String() string { return m.CanonicalString() }

// organic subset atoms that may appear outside brackets, two-letter first.
var organicSubset = []string{"Cl", "Br", "B", "C", "N", "O", "P", "S", "F", "I", "b", "c", "n", "o", "p", "s"}

// Elements counts element symbols in order of first appearance. Aromatic
// lowercase atoms are reported by their element symbol. Implicit hydrogens
// are not counted.
func (m *Molecule) Elements() ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	add := func(sym string) {
		if sym == "" {
			return
		}
		sym = strings.ToUpper(sym[:1]) + sym[1:]
		if _, seen := counts[sym]; !seen {
			order = append(order, sym)
		}
		counts[sym]++
	}

	text := m.CanonicalString()
	for i := 0; i < len(text); {
		if text[i] == '[' {
			end := strings.IndexByte(text[i:], ']')
			add(bracketSymbol(text[i+1 : i+end]))
			i += end + 1
			continue
		}
		matched := false
		for _, sym := range organicSubset {
			if strings.HasPrefix(text[i:], sym) {
				add(sym)
				i += len(sym)
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return order, counts
}

// HeavyAtoms counts every non-hydrogen atom.
func (m *Molecule) HeavyAtoms() int {
	_, counts := m.Elements()
	n := 0
	for sym, c := range counts {
		if sym != "H" {
			n += c
		}
	}
	return n
}

// bracketSymbol extracts the element of a bracket atom such as "13CH4+".
func bracketSymbol(atom string) string {
	atom = strings.TrimLeftFunc(atom, unicode.IsDigit)
	if atom == "" || !unicode.IsLetter(rune(atom[0])) {
		return ""
	}
	if len(atom) > 1 && unicode.IsLower(rune(atom[1])) && unicode.IsUpper(rune(atom[0])) {
		return atom[:2]
	}
	return atom[:1]
}
