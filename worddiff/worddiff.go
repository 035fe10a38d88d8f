// Package worddiff derives CriticMarkup from two versions of a document using
// a line diff refined to words.
package worddiff

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize splits prose into tokens using a hand-written scanner.
// Token types: words (letters, digits, inner apostrophes and hyphens),
// line breaks, other whitespace runs, and single punctuation or symbol
// characters.
func Tokenize(s string) []string {
	if len(s) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(s)/4+1)
	i := 0

	for i < len(s) {
		start := i
		r, size := utf8.DecodeRuneInString(s[i:])

		switch {
		case isWord(r):
			i += size
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if isWord(r) {
					i += size
					continue
				}
				// Joiner inside a word: don't, well-known.
				if (r == '\'' || r == '-' || r == '’') && i+size < len(s) {
					if next, _ := utf8.DecodeRuneInString(s[i+size:]); isWord(next) {
						i += size
						continue
					}
				}
				break
			}
			tokens = append(tokens, s[start:i])

		case r == '\n':
			i++
			tokens = append(tokens, s[start:i])

		case r == '\r' && i+1 < len(s) && s[i+1] == '\n':
			i += 2
			tokens = append(tokens, s[start:i])

		case isSpace(r):
			i += size
			for i < len(s) {
				r, size = utf8.DecodeRuneInString(s[i:])
				if !isSpace(r) {
					break
				}
				i += size
			}
			tokens = append(tokens, s[start:i])

		default:
			i += size
			tokens = append(tokens, s[start:i])
		}
	}

	return tokens
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isSpace(r rune) bool {
	return r != '\n' && r != '\r' && unicode.IsSpace(r)
}

// similarityThreshold is the minimum ratio for word-level diffing.
// Below this threshold, blocks are treated as complete replacements.
const similarityThreshold = 0.4

// hasSufficientSimilarity checks if tokens have enough overlap to warrant word-level diff.
// Uses a simple count of common tokens as an upper bound estimate.
func hasSufficientSimilarity(oldTokens, newTokens []string) bool {
	oldLen, newLen := len(oldTokens), len(newTokens)
	if oldLen == 0 || newLen == 0 {
		return false
	}

	counts := make(map[string]int, oldLen)
	for _, t := range oldTokens {
		counts[t]++
	}

	common := 0
	for _, t := range newTokens {
		if counts[t] > 0 {
			counts[t]--
			common++
		}
	}

	total := oldLen + newLen
	return float64(2*common)/float64(total) >= similarityThreshold
}
