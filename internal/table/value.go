package table

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// missingSpellings are the upstream spellings of an absent cell, lower case.
var missingSpellings = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
}

// Value is an optional cell value. The zero Value is absent.
type Value struct {
	s  string
	ok bool
}

// Present returns a present value holding s verbatim.
func Present(s string) Value {
	return Value{s: s, ok: true}
}

// Normalize converts a raw cell into a Value: surrounding whitespace is
// trimmed, text is NFC-normalised and every missing spelling becomes absent.
func Normalize(raw string) Value {
	s := strings.TrimSpace(norm.NFC.String(raw))
	if IsMissing(s) {
		return Value{}
	}
	return Value{s: s, ok: true}
}

// IsMissing reports whether s is one of the spellings of an absent value.
func IsMissing(s string) bool {
	_, ok := missingSpellings[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Valid reports whether the value is present.
func (v Value) Valid() bool {
	return v.ok
}

// String returns the value or "" when absent.
func (v Value) String() string {
	return v.s
}

// Ptr returns a pointer to the value, or nil when absent.
func (v Value) Ptr() *string {
	if !v.ok {
		return nil
	}
	s := v.s
	return &s
}
