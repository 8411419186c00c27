// Package keyword provides case-folded, word-boundary phrase matching for
// free text such as job titles and ticket descriptions.
package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Text is free text split into case-folded words.
type Text struct {
	words []string
}

// Normalize folds and tokenizes the concatenation of parts. Any rune that is
// not a letter or digit separates words.
func Normalize(parts ...string) Text {
	folded := cases.Fold().String(strings.Join(parts, " "))
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return Text{words: words}
}

// Empty reports whether the text has no words.
func (t Text) Empty() bool { return len(t.words) == 0 }

// Words returns the folded words.
func (t Text) Words() []string {
	out := make([]string, len(t.words))
	copy(out, t.words)
	return out
}

// Has reports whether phrase occurs on word boundaries. The last word of the
// phrase also matches its plural form ("switch" matches "switches").
func (t Text) Has(phrase string) bool {
	p := Normalize(phrase).words
	if len(p) == 0 || len(p) > len(t.words) {
		return false
	}
	for i := 0; i+len(p) <= len(t.words); i++ {
		if matchAt(t.words[i:i+len(p)], p) {
			return true
		}
	}
	return false
}

// Matches returns the phrases that occur in the text, in the given order.
func (t Text) Matches(phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if t.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// HasAny reports whether any phrase occurs in the text.
func (t Text) HasAny(phrases ...string) bool {
	for _, p := range phrases {
		if t.Has(p) {
			return true
		}
	}
	return false
}

func matchAt(window, phrase []string) bool {
	last := len(phrase) - 1
	for j := 0; j < last; j++ {
		if window[j] != phrase[j] {
			return false
		}
	}
	w, p := window[last], phrase[last]
	return w == p || w == p+"s" || w == p+"es"
}
