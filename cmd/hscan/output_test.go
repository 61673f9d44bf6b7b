package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStylesFor(t *testing.T) {
	var buf bytes.Buffer

	s, err := stylesFor("never", &buf)
	require.NoError(t, err)
	assert.Equal(t, "x", s.match.Sprint("x"))

	s, err = stylesFor("always", &buf)
	require.NoError(t, err)
	assert.Contains(t, s.match.Sprint("x"), "\x1b[")

	s, err = stylesFor("auto", &buf)
	require.NoError(t, err)
	assert.Equal(t, "x", s.match.Sprint("x"), "buffers are not terminals")

	_, err = stylesFor("sometimes", &buf)
	assert.Error(t, err)
}

func TestLineBounds(t *testing.T) {
	content := []byte("one\ntwo words\nthree")

	start, end, n := lineBounds(content, 8)
	assert.Equal(t, 4, start)
	assert.Equal(t, 13, end)
	assert.Equal(t, 2, n)

	start, end, n = lineBounds(content, 16)
	assert.Equal(t, 14, start)
	assert.Equal(t, len(content), end)
	assert.Equal(t, 3, n)

	start, _, n = lineBounds(content, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 1, n)
}

func TestHighlight(t *testing.T) {
	s := newStyles(false)
	assert.Equal(t, "abcdef", s.highlight([]byte("abcdef"), []span{{1, 3}, {2, 4}, {5, 99}}))

	s = newStyles(true)
	out := s.highlight([]byte("abcdef"), []span{{1, 3}})
	assert.Contains(t, out, "a\x1b[")
	assert.Contains(t, out, "bc")
	assert.Contains(t, out, "def")
}
