package predict

import (
	"errors"
	"strings"
	"unicode"

	"github.com/stellarlinkco/idiom-eval/internal/gold"
)

var (
	errNoOptionLetter       = errors.New("no option letter in reply")
	errMultipleOptionLetter = errors.New("more than one option letter in reply")
)

// extractOptionLetter finds the option letter a reply names. Only letters
// standing alone as a word count, so "B.", "b)" and "The answer is B" all
// resolve to B while "AB" resolves to nothing. Two different letters make
// the reply ambiguous and invalid.
func extractOptionLetter(reply string) (int, error) {
	found := -1
	for _, w := range wordsOf(reply) {
		if len(w) != 1 {
			continue
		}
		c := w[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'A'+gold.NumOptions-1 {
			continue
		}
		idx := int(c - 'A')
		if found >= 0 && found != idx {
			return -1, errMultipleOptionLetter
		}
		found = idx
	}
	if found < 0 {
		return -1, errNoOptionLetter
	}
	return found, nil
}

// isAffirmative reports whether the reply contains the affirmative token as
// a whole word, case-insensitively. "ja." and "Ja, det er korrekt" are
// affirmative for token "ja"; "jamen" is not.
func isAffirmative(reply, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	for _, w := range wordsOf(reply) {
		if strings.EqualFold(w, token) {
			return true
		}
	}
	return false
}

// wordsOf splits a reply into maximal letter/digit runs. Danish letters are
// letters here, so "jaæh" stays one word.
func wordsOf(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
