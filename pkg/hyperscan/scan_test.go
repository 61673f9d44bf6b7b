//go:build cgo

package hyperscan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(matches *[]Match) MatchHandler {
	return func(m Match) Decision {
		*matches = append(*matches, m)
		return Continue
	}
}

func newBlock(t *testing.T, patterns ...*Pattern) (*BlockDatabase, *Scratch) {
	t.Helper()
	db, err := NewBlockDatabase(patterns...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := NewScratch(db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return db, s
}

func TestBlockScan_CaselessSom(t *testing.T) {
	db, s := newBlock(t, NewPattern("test", Caseless|SomLeftMost))

	var matches []Match
	require.NoError(t, db.Scan([]byte("some TEST data"), s, collect(&matches)))
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(5), matches[0].From)
	assert.Equal(t, uint64(9), matches[0].To)
}

func TestBlockScan_LiteralEndOffset(t *testing.T) {
	db, s := newBlock(t, NewPattern("test", SomLeftMost))

	var matches []Match
	require.NoError(t, db.Scan([]byte("foo test bar"), s, collect(&matches)))
	require.Len(t, matches, 1)
	assert.Equal(t, Match{ID: 0, From: 4, To: 8}, matches[0])
}

func TestBlockScan_Empty(t *testing.T) {
	db, s := newBlock(t, NewPattern("test", 0))

	var matches []Match
	require.NoError(t, db.Scan(nil, s, collect(&matches)))
	assert.Empty(t, matches)
	require.NoError(t, db.Scan([]byte("test"), s, nil))
}

func TestBlockScan_IDsAndOrder(t *testing.T) {
	p1 := NewPattern("foo", 0)
	p1.ID = 10
	p2 := NewPattern("bar", 0)
	p2.ID = 20
	db, s := newBlock(t, p1, p2)

	var matches []Match
	require.NoError(t, db.Scan([]byte("bar foo bar"), s, collect(&matches)))
	require.Len(t, matches, 3)
	assert.Equal(t, []uint{20, 10, 20}, []uint{matches[0].ID, matches[1].ID, matches[2].ID})
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].To, matches[i].To)
	}
}

func TestBlockScan_Stop(t *testing.T) {
	db, s := newBlock(t, NewPattern("a", 0))

	calls := 0
	err := db.Scan([]byte("aaaa"), s, func(Match) Decision {
		calls++
		return Stop
	})
	require.ErrorIs(t, err, ErrScanTerminated)
	assert.True(t, IsTerminated(err))
	assert.Equal(t, 1, calls)

	// the scratch is usable again afterwards
	calls = 0
	require.NoError(t, db.Scan([]byte("aaaa"), s, func(Match) Decision {
		calls++
		return Continue
	}))
	assert.Equal(t, 4, calls)
}

func TestBlockScan_NestedUseOfScratch(t *testing.T) {
	db, s := newBlock(t, NewPattern("a", 0))

	var inner error
	require.NoError(t, db.Scan([]byte("a"), s, func(Match) Decision {
		inner = db.Scan([]byte("a"), s, nil)
		return Continue
	}))
	assert.ErrorIs(t, inner, ErrScratchInUse)
}

func TestBlockScan_HandlerPanic(t *testing.T) {
	db, s := newBlock(t, NewPattern("a", 0))

	calls := 0
	assert.PanicsWithValue(t, "boom", func() {
		_ = db.Scan([]byte("aaa"), s, func(Match) Decision {
			calls++
			panic("boom")
		})
	})
	assert.Equal(t, 1, calls)

	// the panic released the scratch
	require.NoError(t, db.Scan([]byte("a"), s, nil))
}

func TestVectoredScan(t *testing.T) {
	db, err := NewVectoredDatabase(NewPattern("test", SomLeftMost))
	require.NoError(t, err)
	defer db.Close()
	s, err := NewScratch(db)
	require.NoError(t, err)
	defer s.Close()

	var matches []Match
	require.NoError(t, db.Scan([][]byte{[]byte("foo"), []byte("test"), []byte("bar")}, s, collect(&matches)))
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(3), matches[0].From)
	assert.Equal(t, uint64(7), matches[0].To)

	// a match spanning buffers, including an empty one
	matches = nil
	require.NoError(t, db.Scan([][]byte{[]byte("te"), nil, []byte("st")}, s, collect(&matches)))
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(4), matches[0].To)
}

func TestCompileError(t *testing.T) {
	_, err := NewBlockDatabase(NewPattern("foo", 0), NewPattern("[bad(", 0))
	require.Error(t, err)

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Expression)
	assert.NotEmpty(t, cerr.Message)
	assert.ErrorIs(t, err, ErrCompilerError)

	_, err = Compile(nil, BlockMode)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, -1, cerr.Expression)

	_, err = Compile([]*Pattern{{Expression: "a\x00b"}}, BlockMode)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 0, cerr.Expression)
}

func TestCompile_ReturnsTypedDatabase(t *testing.T) {
	for _, mode := range []ModeFlag{BlockMode, VectoredMode, StreamMode} {
		db, err := Compile([]*Pattern{NewPattern("abc", 0)}, mode)
		require.NoError(t, err)
		assert.Equal(t, mode, db.Mode().ScanMode())
		switch mode {
		case BlockMode:
			assert.IsType(t, &BlockDatabase{}, db)
		case VectoredMode:
			assert.IsType(t, &VectoredDatabase{}, db)
		case StreamMode:
			assert.IsType(t, &StreamDatabase{}, db)
		}
		require.NoError(t, db.Close())
		assert.ErrorIs(t, db.Close(), ErrClosed)
	}
}

func TestCompile_StreamSomHorizon(t *testing.T) {
	db, err := Compile([]*Pattern{NewPattern("foo", SomLeftMost)}, StreamMode)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, StreamMode|SomHorizonMediumMode, db.Mode())
}

func TestCompile_Ext(t *testing.T) {
	p := NewPattern("foo", 0).WithExt(Ext{}.WithMinOffset(10))
	db, s := newBlock(t, p)

	var matches []Match
	require.NoError(t, db.Scan([]byte("foo....foo....foo"), s, collect(&matches)))
	require.Len(t, matches, 2)
	assert.Equal(t, uint64(10), matches[0].To)
	assert.Equal(t, uint64(17), matches[1].To)
}

func TestDatabaseBuilder(t *testing.T) {
	b := &DatabaseBuilder{}
	require.NoError(t, b.AddExpressions("1:/foo/i", "2:/bar/"))
	db, err := b.Build()
	require.NoError(t, err)
	defer db.Close()

	block := db.(*BlockDatabase)
	s, err := NewScratch(block)
	require.NoError(t, err)
	defer s.Close()

	var ids []uint
	require.NoError(t, block.Scan([]byte("FOO bar"), s, func(m Match) Decision {
		ids = append(ids, m.ID)
		return Continue
	}))
	assert.Equal(t, []uint{1, 2}, ids)

	b.AddLiterals(NewLiteral("x", 0))
	_, err = b.Build()
	require.Error(t, err)
}

func TestDatabase_InfoAndSize(t *testing.T) {
	db, _ := newBlock(t, NewPattern("test", 0))

	info, err := db.Info()
	require.NoError(t, err)
	assert.Equal(t, BlockMode, info.Mode)
	assert.NotEmpty(t, info.Version)

	size, err := db.Size()
	require.NoError(t, err)
	assert.Greater(t, size, 0)
}

func TestDatabase_Clone(t *testing.T) {
	db, err := NewBlockDatabase(NewPattern("test", 0))
	require.NoError(t, err)
	clone, err := db.Clone()
	require.NoError(t, err)
	assert.Equal(t, db.ID(), clone.ID())

	s, err := NewScratch(db)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, db.Close())

	var matches []Match
	require.NoError(t, clone.Scan([]byte("a test"), s, collect(&matches)))
	assert.Len(t, matches, 1)
	require.NoError(t, clone.Close())

	_, err = db.Clone()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Scan([]byte("test"), s, nil), ErrClosed)
}

func TestExpressionInfo(t *testing.T) {
	info, err := ExpressionInfo(NewPattern("test", 0))
	require.NoError(t, err)
	assert.Equal(t, uint(4), info.MinWidth)
	assert.Equal(t, uint(4), info.MaxWidth)
	assert.False(t, info.UnorderedMatches)
	assert.False(t, info.MatchesAtEOD)

	info, err = NewPattern("a+", 0).Info()
	require.NoError(t, err)
	assert.Equal(t, UnboundedMaxWidth, info.MaxWidth)

	_, err = ExpressionInfo(NewPattern("(", 0))
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
}

func TestPlatform(t *testing.T) {
	require.NoError(t, ValidPlatform())
	p, err := HostPlatform()
	require.NoError(t, err)
	assert.NotEmpty(t, p.String())
	assert.NotEmpty(t, Version())

	db, err := Compile([]*Pattern{NewPattern("test", 0)}, BlockMode, WithPlatform(Platform{Tune: Generic}))
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestScanError_NotWrappedForUnknownCodes(t *testing.T) {
	var s Scratch
	s.sized = map[uint64]struct{}{1: {}}
	err := s.scanError(-2, &dbHandle{id: 1})
	assert.True(t, errors.Is(err, ErrNoMemory))
	assert.ErrorIs(t, s.scanError(-1, &dbHandle{id: 2}), ErrScratchTooSmall)
	assert.ErrorIs(t, s.scanError(-1, &dbHandle{id: 1}), ErrInvalid)
	assert.NoError(t, s.scanError(0, &dbHandle{id: 1}))
}
