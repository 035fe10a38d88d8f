package redline

import "unicode/utf8"

// Fingerprint window bounds in bytes.
const (
	MinContext = 40
	MaxContext = 160
)

// Fingerprint returns the context around text[start:end]. Each side covers
// at least MinContext bytes and grows to the nearest sentence boundary, up to
// MaxContext bytes. Windows never split a UTF-8 sequence.
func Fingerprint(text string, start, end int) (before, after string) {
	start = clamp(start, 0, len(text))
	end = clamp(end, start, len(text))

	lo := max(0, start-MinContext)
	floor := max(0, start-MaxContext)
	for lo > floor && !sentenceStart(text, lo) {
		lo--
	}
	for lo < start && !utf8.RuneStart(text[lo]) {
		lo++
	}

	hi := min(len(text), end+MinContext)
	ceil := min(len(text), end+MaxContext)
	for hi < ceil && !sentenceEnd(text, hi) {
		hi++
	}
	for hi > end && hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi--
	}
	return text[lo:start], text[end:hi]
}

func sentenceStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	switch text[i-1] {
	case '\n':
		return true
	case ' ':
		if i >= 2 {
			switch text[i-2] {
			case '.', '!', '?':
				return true
			}
		}
	}
	return false
}

func sentenceEnd(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	switch text[i-1] {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
