//go:build cgo

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setGrepFlags(t *testing.T, exprs ...string) {
	t.Helper()
	grepExprs, grepFile = exprs, ""
	grepLiteral, grepCaseless, grepNoIgnore, grepHidden = false, false, false, false
	grepCount, grepOnly = false, false
	grepWorkers, grepMaxSize = 2, 64*1024*1024
	colorMode = "never"
	t.Cleanup(func() {
		grepExprs, grepCount, grepOnly, grepCaseless, grepLiteral = nil, false, false, false, false
		colorMode = "auto"
	})
}

func runGrepIn(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runGrep(cmd, args))
	return buf.String()
}

func TestRunGrep_Lines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nfoo bar foo\nbeta\nFOO\n"), 0o644))

	setGrepFlags(t)
	assert.Equal(t, path+":2:foo bar foo\n", runGrepIn(t, "fo+", path))

	setGrepFlags(t, "fo+")
	grepCaseless = true
	grepCount = true
	assert.Equal(t, path+":2\n", runGrepIn(t, path))

	setGrepFlags(t, "fo+", "ba.")
	grepOnly = true
	assert.Equal(t, path+":2:foo\n"+path+":2:bar\n"+path+":2:foo\n", runGrepIn(t, path))
}

func TestRunGrep_Gitignore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("skip.txt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("a.b\naxb\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("a.b\n"), 0o644))

	setGrepFlags(t, `a\.b`)
	assert.Equal(t, filepath.Join(dir, "keep.txt")+":1:a.b\n", runGrepIn(t, dir))
}

func TestRunGrep_Errors(t *testing.T) {
	setGrepFlags(t)
	assert.Error(t, runGrep(&cobra.Command{}, nil))

	setGrepFlags(t, "(unclosed")
	assert.Error(t, runGrep(&cobra.Command{}, []string{t.TempDir()}))
}

func TestNormalizeSpans(t *testing.T) {
	got := normalizeSpans([]span{{5, 8}, {0, 3}, {0, 4}, {2, 6}, {9, 10}})
	assert.Equal(t, []span{{0, 4}, {5, 8}, {9, 10}}, got)
	assert.Empty(t, normalizeSpans(nil))
}
