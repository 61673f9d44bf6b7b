package matcher

import "unicode/utf8"

// indexedText maps the rune offsets reported by regexp2 back to byte
// offsets. Invalid bytes count as one rune each, as they do when Go
// converts a string to runes.
type indexedText struct {
	s     string
	runes []int // byte offset of each rune, plus len(s); nil for ASCII
}

func newIndexedText(content []byte) *indexedText {
	t := &indexedText{s: string(content)}
	if isASCII(content) {
		return t
	}
	t.runes = make([]int, 0, utf8.RuneCount(content)+1)
	for i := range t.s {
		t.runes = append(t.runes, i)
	}
	t.runes = append(t.runes, len(t.s))
	return t
}

func (t *indexedText) bytes(runeIdx int) int {
	if t.runes == nil {
		return runeIdx
	}
	return t.runes[runeIdx]
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
