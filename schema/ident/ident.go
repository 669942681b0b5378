// Package ident provides validated identifiers for schema names.
//
// An Identifier is guaranteed to be a legal symbol in every supported
// target language: non-empty, alphanumeric plus underscore, not
// starting with a digit, and not colliding with any registered
// reserved word. Language target packages contribute their reserved
// words to the package-level set from their init functions, so a name
// accepted here is safe to emit for every target the build registers.
package ident

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for identifier validation.
var (
	// ErrEmptyName indicates an empty candidate string.
	ErrEmptyName = errors.New("ident: empty name")
	// ErrLeadingDigit indicates a candidate starting with a digit.
	ErrLeadingDigit = errors.New("ident: name starts with a digit")
	// ErrInvalidCharacter indicates a character outside [A-Za-z0-9_].
	ErrInvalidCharacter = errors.New("ident: invalid character")
	// ErrReservedWord indicates a collision with a target language keyword.
	ErrReservedWord = errors.New("ident: reserved word")
)

// Identifier is a name that is legal across all supported target
// languages. The zero value is invalid; construct with New.
type Identifier struct {
	name string
}

// New validates candidate and wraps it. The produced identifier's
// underlying string equals candidate exactly; no case folding or
// other coercion is applied.
func New(candidate string) (Identifier, error) {
	if candidate == "" {
		return Identifier{}, ErrEmptyName
	}
	if c := candidate[0]; c >= '0' && c <= '9' {
		return Identifier{}, fmt.Errorf("%w: %q", ErrLeadingDigit, candidate)
	}
	for _, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return Identifier{}, fmt.Errorf("%w: %q in %q", ErrInvalidCharacter, r, candidate)
		}
	}
	reservedMu.RLock()
	_, reserved := reservedWords[candidate]
	reservedMu.RUnlock()
	if reserved {
		return Identifier{}, fmt.Errorf("%w: %q", ErrReservedWord, candidate)
	}
	return Identifier{name: candidate}, nil
}

// MustNew is like New but panics on invalid input. It is intended for
// identifiers that are string literals in the calling code.
func MustNew(candidate string) Identifier {
	id, err := New(candidate)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the underlying name.
func (i Identifier) String() string { return i.name }

// IsZero reports whether i is the invalid zero value.
func (i Identifier) IsZero() bool { return i.name == "" }

// Less orders identifiers by their underlying string.
func (i Identifier) Less(other Identifier) bool { return i.name < other.name }

var (
	reservedMu sync.RWMutex
	// Core reserved set: words that are keywords in enough languages
	// that no target could ever accept them as a bare symbol.
	reservedWords = map[string]struct{}{
		"break": {}, "case": {}, "class": {}, "const": {}, "continue": {},
		"default": {}, "do": {}, "else": {}, "enum": {}, "false": {},
		"for": {}, "if": {}, "import": {}, "in": {}, "new": {},
		"null": {}, "return": {}, "static": {}, "struct": {}, "switch": {},
		"this": {}, "true": {}, "void": {}, "while": {},
	}
)

// RegisterReservedWords adds words to the reserved set. Language
// target packages call this from init so that Identifier validation
// covers every registered target before any code is generated.
func RegisterReservedWords(words []string) {
	reservedMu.Lock()
	defer reservedMu.Unlock()
	for _, w := range words {
		reservedWords[w] = struct{}{}
	}
}

// ReservedWords returns the current reserved set in sorted order.
func ReservedWords() []string {
	reservedMu.RLock()
	defer reservedMu.RUnlock()
	words := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
