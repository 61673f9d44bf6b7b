//go:build cgo

package hyperscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamDB(t *testing.T, patterns ...*Pattern) (*StreamDatabase, *Scratch) {
	t.Helper()
	db, err := NewStreamDatabase(patterns...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := NewScratch(db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return db, s
}

func TestStream_MatchAcrossChunks(t *testing.T) {
	db, s := newStreamDB(t, NewPattern("test", 0))

	st, err := db.Open()
	require.NoError(t, err)

	var matches []Match
	for _, chunk := range []string{"foo", "te", "st", "bar"} {
		require.NoError(t, st.Scan([]byte(chunk), s, collect(&matches)))
	}
	require.NoError(t, st.Close(s, collect(&matches)))

	require.Len(t, matches, 1)
	assert.Equal(t, uint64(0), matches[0].From)
	assert.Equal(t, uint64(7), matches[0].To)
	assert.ErrorIs(t, st.Close(nil, nil), ErrClosed)
}

func TestStream_EquivalentToBlock(t *testing.T) {
	patterns := []*Pattern{
		{Expression: "foo", ID: 1},
		{Expression: "ba[rz]", ID: 2},
		{Expression: `\d{3}`, ID: 3},
		{Expression: "xyz$", ID: 4},
	}
	input := []byte("foo bar 12345 bazfoo 999 xyz")

	block, bs := newBlock(t, patterns...)
	var want []Match
	require.NoError(t, block.Scan(input, bs, collect(&want)))
	require.NotEmpty(t, want)

	db, s := newStreamDB(t, patterns...)
	for _, size := range []int{1, 2, 3, 5, 7, len(input)} {
		st, err := db.Open()
		require.NoError(t, err)

		var got []Match
		for off := 0; off < len(input); off += size {
			end := min(off+size, len(input))
			require.NoError(t, st.Scan(input[off:end], s, collect(&got)))
		}
		require.NoError(t, st.Close(s, collect(&got)))
		assert.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestStream_EndOfDataMatch(t *testing.T) {
	db, s := newStreamDB(t, NewPattern("foo$", 0))

	st, err := db.Open()
	require.NoError(t, err)

	var matches []Match
	require.NoError(t, st.Scan([]byte("xfoo"), s, collect(&matches)))
	assert.Empty(t, matches, "anchored match is only reported at end of data")
	require.NoError(t, st.Close(s, collect(&matches)))
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(4), matches[0].To)
}

func TestStream_CloseWithoutHandlerDiscards(t *testing.T) {
	db, _ := newStreamDB(t, NewPattern("foo$", 0))

	st, err := db.Open()
	require.NoError(t, err)
	require.NoError(t, st.Close(nil, nil))
}

func TestStream_StopThenReset(t *testing.T) {
	db, s := newStreamDB(t, NewPattern("a", 0))

	st, err := db.Open()
	require.NoError(t, err)
	defer st.Close(nil, nil)

	calls := 0
	stop := func(Match) Decision { calls++; return Stop }
	require.ErrorIs(t, st.Scan([]byte("aaa"), s, stop), ErrScanTerminated)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, st.Scan([]byte("aaa"), s, stop), ErrStreamTerminated)

	require.NoError(t, st.Reset(s, nil))
	var matches []Match
	require.NoError(t, st.Scan([]byte("aa"), s, collect(&matches)))
	assert.Len(t, matches, 2)
	assert.Equal(t, uint64(1), matches[0].To, "offsets restart after reset")
}

func TestStream_Clone(t *testing.T) {
	db, s := newStreamDB(t, NewPattern("foobar", 0))

	st, err := db.Open()
	require.NoError(t, err)
	require.NoError(t, st.Scan([]byte("foo"), s, nil))

	c, err := st.Clone()
	require.NoError(t, err)

	var a, b []Match
	require.NoError(t, st.Scan([]byte("bar"), s, collect(&a)))
	require.NoError(t, c.Scan([]byte("baz"), s, collect(&b)))
	assert.Len(t, a, 1)
	assert.Empty(t, b)

	// copy st's state over c again
	require.NoError(t, st.Close(s, nil))
	fresh, err := db.Open()
	require.NoError(t, err)
	require.NoError(t, fresh.Scan([]byte("foo"), s, nil))
	require.NoError(t, c.ResetAndCopy(fresh, s, nil))
	b = nil
	require.NoError(t, c.Scan([]byte("bar"), s, collect(&b)))
	assert.Len(t, b, 1)

	require.NoError(t, c.Close(nil, nil))
	require.NoError(t, fresh.Close(nil, nil))
}

func TestStream_OutlivesClosedDatabase(t *testing.T) {
	db, err := NewStreamDatabase(NewPattern("foobar", 0))
	require.NoError(t, err)
	s, err := NewScratch(db)
	require.NoError(t, err)
	defer s.Close()

	st, err := db.Open()
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var matches []Match
	require.NoError(t, st.Scan([]byte("foobar"), s, collect(&matches)))
	require.NoError(t, st.Close(s, nil))
	assert.Len(t, matches, 1)
}

func TestStream_Size(t *testing.T) {
	db, _ := newStreamDB(t, NewPattern("foo.*bar", 0))
	size, err := db.StreamSize()
	require.NoError(t, err)
	assert.Greater(t, size, 0)
}

func TestStream_CloseWithTooSmallScratchKeepsStream(t *testing.T) {
	_, small := newStreamDB(t, NewPattern("a", 0))
	db, err := NewStreamDatabase(
		NewPattern(`foo.{10,200}bar`, DotAll),
		NewPattern(`(a|b|c){20,80}x`, 0),
		NewPattern(`[0-9a-f]{32,64}`, Caseless),
		NewPattern(`\w+@\w+\.(com|org|net)`, 0),
		NewPattern(`begin.*end$`, 0),
	)
	require.NoError(t, err)
	defer db.Close()

	st, err := db.Open()
	require.NoError(t, err)

	var matches []Match
	require.ErrorIs(t, st.Close(small, collect(&matches)), ErrScratchTooSmall)
	require.NoError(t, st.Close(nil, nil))
	assert.ErrorIs(t, st.Close(nil, nil), ErrClosed)
}

func TestStream_StopDuringFlush(t *testing.T) {
	db, s := newStreamDB(t, NewPattern("foo$", 0))
	stop := func(Match) Decision { return Stop }

	st, err := db.Open()
	require.NoError(t, err)
	require.NoError(t, st.Scan([]byte("xfoo"), s, nil))
	require.ErrorIs(t, st.Reset(s, stop), ErrScanTerminated)

	var matches []Match
	require.NoError(t, st.Scan([]byte("foo"), s, collect(&matches)))
	require.NoError(t, st.Close(s, collect(&matches)))
	assert.Len(t, matches, 1, "stream is usable after a stopped reset")

	st, err = db.Open()
	require.NoError(t, err)
	require.NoError(t, st.Scan([]byte("xfoo"), s, nil))
	require.ErrorIs(t, st.Close(s, stop), ErrScanTerminated)
	assert.ErrorIs(t, st.Close(nil, nil), ErrClosed, "stream is freed even when stopped")

	// a clean scan afterwards is not affected by the earlier stop
	st, err = db.Open()
	require.NoError(t, err)
	require.NoError(t, st.Close(s, stop))
}
