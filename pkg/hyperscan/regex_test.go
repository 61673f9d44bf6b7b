//go:build cgo

package hyperscan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegex_Match(t *testing.T) {
	re, err := CompileRegex(`\d{3}-\d{4}`)
	require.NoError(t, err)
	defer re.Close()

	assert.True(t, re.MatchString("call 555-1234 now"))
	assert.False(t, re.MatchString("call me"))
	assert.Equal(t, `\d{3}-\d{4}`, re.String())
}

func TestRegex_FindIndex(t *testing.T) {
	re := MustCompileRegex(`fo+`)
	defer re.Close()

	assert.Equal(t, []int{2, 7}, re.FindIndex([]byte("a foooo b")))
	assert.Equal(t, []byte("foooo"), re.Find([]byte("a foooo b")))
	assert.Nil(t, re.FindIndex([]byte("bar")))
	assert.Nil(t, re.Find([]byte("bar")))
}

func TestRegex_FindAllIndex(t *testing.T) {
	re := MustCompileRegex(`ab+`)
	defer re.Close()

	in := []byte("ab abbb xx abb")
	assert.Equal(t, [][]int{{0, 2}, {3, 7}, {11, 14}}, re.FindAllIndex(in, -1))
	assert.Equal(t, [][]int{{0, 2}, {3, 7}}, re.FindAllIndex(in, 2))
	assert.Nil(t, re.FindAllIndex(in, 0))
}

func TestRegex_Flags(t *testing.T) {
	re, err := CompileRegexFlags("hello", Caseless)
	require.NoError(t, err)
	defer re.Close()
	assert.True(t, re.MatchString("HeLLo"))
}

func TestRegex_Invalid(t *testing.T) {
	_, err := CompileRegex("a(")
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Panics(t, func() { MustCompileRegex("a(") })
}

func TestRegex_Concurrent(t *testing.T) {
	re := MustCompileRegex(`needle\d`)
	defer re.Close()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Len(t, re.FindAllIndex([]byte("needle1 hay needle2"), -1), 2)
			}
		}()
	}
	wg.Wait()
}
