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

	"github.com/praetorian-inc/hyperscan/pkg/hyperscan"
)

func setCompileFlags(t *testing.T, exprs ...string) {
	t.Helper()
	compileExprs, compileFile, compileRules = exprs, "", ""
	compileLiteral, compileSom = false, false
	compileMode, compileOutput, compileCache = "block", "", ""
	t.Cleanup(func() {
		compileExprs, compileMode, compileOutput, compileCache = nil, "block", "", ""
	})
}

func runCompileOut(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runCompile(cmd, nil))
	return buf.String()
}

func TestRunCompile_WritesDatabase(t *testing.T) {
	dir := t.TempDir()
	setCompileFlags(t, "foo", `ba[rz]`)
	compileMode = "stream"
	compileOutput = filepath.Join(dir, "db.bin")

	out := runCompileOut(t)
	assert.Contains(t, out, "2 patterns")
	assert.Contains(t, out, "cached: false")
	assert.Contains(t, out, "wrote "+compileOutput)

	data, err := os.ReadFile(compileOutput)
	require.NoError(t, err)
	info, err := hyperscan.SerializedInfo(data)
	require.NoError(t, err)
	assert.Equal(t, hyperscan.StreamMode, info.Mode)

	infoExprs, infoCache = nil, ""
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runInfo(cmd, []string{compileOutput}))
	assert.Contains(t, buf.String(), compileOutput)
	assert.Contains(t, buf.String(), "bytes")
}

func TestRunCompile_Cache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache.db")
	setCompileFlags(t, "needle")
	compileCache = cache

	assert.Contains(t, runCompileOut(t), "cached: false")
	assert.Contains(t, runCompileOut(t), "cached: true")

	infoExprs, infoCache = nil, cache
	t.Cleanup(func() { infoCache = "" })
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runInfo(cmd, nil))
	assert.Contains(t, buf.String(), "BLOCK")
}

func TestRunCompile_Errors(t *testing.T) {
	setCompileFlags(t, "foo")
	compileMode = "sideways"
	assert.Error(t, runCompile(&cobra.Command{}, nil))

	setCompileFlags(t)
	assert.Error(t, runCompile(&cobra.Command{}, nil), "no patterns")

	setCompileFlags(t, "foo")
	compileLiteral = true
	compileCache = ":memory:"
	assert.Error(t, runCompile(&cobra.Command{}, nil))
}

func TestRunInfo_Expressions(t *testing.T) {
	infoExprs, infoCache = []string{"1:/ab{2,4}c/", "2:/x.*/s"}, ""
	t.Cleanup(func() { infoExprs = nil })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runInfo(cmd, nil))
	assert.Contains(t, buf.String(), "width 4..6")
	assert.Contains(t, buf.String(), "width 1..unbounded")
}
