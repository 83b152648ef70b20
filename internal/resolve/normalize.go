package resolve

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer selects how a name is reduced to a comparison key.
type Normalizer int

const (
	// LooseKey lowercases and drops every character outside [a-z0-9].
	LooseKey Normalizer = iota
	// SpacedKey lowercases and drops whitespace, keeping punctuation.
	SpacedKey
)

// Key normalizes name under n.
func (n Normalizer) Key(name string) string {
	if n == SpacedKey {
		return Spaced(name)
	}
	return Loose(name)
}

func (n Normalizer) String() string {
	if n == SpacedKey {
		return "spaced"
	}
	return "loose"
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// Loose returns the loose comparison key for name:
//  1. Lowercase
//  2. Strip every character that is not an ASCII letter or digit
//
// "Fire Ball", "fire-ball" and "FireBall" all yield "fireball".
func Loose(name string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(name), "")
}

// Spaced returns the spaced comparison key for name: lowercase with all
// whitespace removed. Unlike Loose it keeps punctuation, so "Bless of Body"
// and "BlessofBody" collide but "Self-Heal" and "Self Heal" do not.
func Spaced(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// SpaceCamel inserts a space before every capital letter that directly
// follows a letter or digit. Names that are already separated come back
// unchanged, so applying it twice is the same as applying it once.
func SpaceCamel(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 8)
	var prev rune
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLetter(prev) || unicode.IsDigit(prev)) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// IsPlaceholder reports whether name is blank, equal to label or starts with
// label. Placeholder DNA rows carry no meaningful enhancement.
func IsPlaceholder(name, label string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	if label == "" {
		return false
	}
	return strings.HasPrefix(name, label)
}
