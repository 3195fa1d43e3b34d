package version

import (
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/bumper/pkg/errors"
)

// Spec is a declared dependency version split into its range prefix and
// numeric part. The zero Prefix means the declaration carried no prefix.
type Spec struct {
	Numeric string
	Prefix  rune
}

// Parse splits raw into a [Spec]. A leading non-digit rune becomes the prefix.
// Parse never interprets the numeric part; it fails on empty input and on a
// leading byte that is not valid UTF-8.
func Parse(raw string) (Spec, error) {
	if raw == "" {
		return Spec{}, errors.New(errors.ErrCodeInvalidVersion, "empty version string")
	}
	first, size := utf8.DecodeRuneInString(raw)
	if first == utf8.RuneError && size == 1 {
		return Spec{}, errors.New(errors.ErrCodeInvalidVersion, "version %q starts with invalid UTF-8", raw)
	}
	if isDigit(first) {
		return Spec{Numeric: raw}, nil
	}
	return Spec{Numeric: raw[size:], Prefix: first}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) Spec {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// String reconstructs the declared version.
func (s Spec) String() string {
	if s.Prefix == 0 {
		return s.Numeric
	}
	var b strings.Builder
	b.Grow(utf8.RuneLen(s.Prefix) + len(s.Numeric))
	b.WriteRune(s.Prefix)
	b.WriteString(s.Numeric)
	return b.String()
}

// With returns a copy of s whose numeric part is latest.
func (s Spec) With(latest string) Spec {
	return Spec{Numeric: latest, Prefix: s.Prefix}
}

// Resolvable reports whether the numeric part starts with a digit, which is
// the only form looked up on a registry.
func (s Spec) Resolvable() bool {
	r, _ := utf8.DecodeRuneInString(s.Numeric)
	return isDigit(r)
}

// HasPrefix reports whether the declaration carried a range prefix.
func (s Spec) HasPrefix() bool { return s.Prefix != 0 }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
