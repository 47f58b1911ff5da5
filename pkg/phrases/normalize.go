package phrases

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases, trims, strips punctuation and collapses
// whitespace. Apostrophes are dropped so "don't" becomes "dont"; every other
// punctuation rune becomes a word break so "uh-huh" becomes "uh huh".
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’' || r == '`':
			continue
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// MatchesPhrase reports whether normalized text is the phrase itself, starts
// with the phrase followed by more words, or ends with the phrase.
func MatchesPhrase(text, phrase string) bool {
	if text == "" || phrase == "" {
		return false
	}
	return text == phrase ||
		strings.HasPrefix(text, phrase+" ") ||
		strings.HasSuffix(text, " "+phrase)
}

// StartsWithPhrase reports whether normalized text equals the phrase or
// begins with it as a whole word sequence.
func StartsWithPhrase(text, phrase string) bool {
	if text == "" || phrase == "" {
		return false
	}
	return text == phrase || strings.HasPrefix(text, phrase+" ")
}

// ContainsPhrase reports whether a multi-word phrase occurs in normalized text
// on word boundaries. Single-word phrases only match when they are the whole
// text, or the first word, since a lone word buried in a sentence is rarely
// meaningful on its own.
func ContainsPhrase(text, phrase string) bool {
	if text == "" || phrase == "" {
		return false
	}
	if !strings.Contains(phrase, " ") {
		return StartsWithPhrase(text, phrase)
	}
	padded := " " + text + " "
	return strings.Contains(padded, " "+phrase+" ")
}
