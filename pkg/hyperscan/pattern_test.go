package hyperscan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags("ism")
	require.NoError(t, err)
	assert.Equal(t, Caseless|DotAll|MultiLine, flags)

	assert.Equal(t, "is", (Caseless | DotAll).String())
	assert.Equal(t, "", Flag(0).String())

	_, err = ParseFlags("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid compile flag")
}

func TestParseFlags_AllLetters(t *testing.T) {
	flags, err := ParseFlags("imsHV8WPLCQ")
	require.NoError(t, err)
	assert.Equal(t, "imsHV8WPLCQ", flags.String())
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in    string
		expr  string
		flags Flag
		id    int
	}{
		{"test", "test", 0, 0},
		{"/test/", "test", 0, 0},
		{"/test/i", "test", Caseless, 0},
		{"3:/test/i", "test", Caseless, 3},
		{"test/i", "test/i", 0, 0},
		{"/t/e/s/t/i", "t/e/s/t", Caseless, 0},
		{"a:b", "a:b", 0, 0},
		{"12:foo", "foo", 0, 12},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePattern(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, p.Expression)
			assert.Equal(t, tt.flags, p.Flags)
			assert.Equal(t, tt.id, p.ID)
		})
	}
}

func TestParsePattern_InvalidFlags(t *testing.T) {
	_, err := ParsePattern("/test/xyz")
	require.Error(t, err)
}

func TestParsePattern_Ext(t *testing.T) {
	p, err := ParsePattern("1:/foo.*bar/s{min_offset=10,edit_distance=2}")
	require.NoError(t, err)
	require.NotNil(t, p.Ext)
	assert.Equal(t, ExtMinOffset|ExtEditDistance, p.Ext.Flags)
	assert.Equal(t, uint64(10), p.Ext.MinOffset)
	assert.Equal(t, uint(2), p.Ext.EditDistance)
	assert.Equal(t, DotAll, p.Flags)
	assert.Equal(t, "1:/foo.*bar/s{min_offset=10,edit_distance=2}", p.String())

	_, err = ParsePattern("/foo/{bogus=1}")
	require.Error(t, err)
}

func TestPattern_String(t *testing.T) {
	p := NewPattern("test", Caseless|SomLeftMost)
	p.ID = 7
	assert.Equal(t, "7:/test/iL", p.String())

	back, err := ParsePattern(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.Expression, back.Expression)
	assert.Equal(t, p.Flags, back.Flags)
	assert.Equal(t, p.ID, back.ID)
}

func TestParsePatterns(t *testing.T) {
	src := `
# comment
1:/foo/i

2:/bar/
`
	patterns, err := ParsePatterns(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, "foo", patterns[0].Expression)
	assert.Equal(t, 2, patterns[1].ID)

	_, err = ParsePatterns(strings.NewReader("1:/ok/\n2:/bad/z\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseLiterals(t *testing.T) {
	src := "# literals\n\n1:/foo/i\n2:/a/b/\nplain\n"
	literals, err := ParseLiterals(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, literals, 3)
	assert.Equal(t, "foo", literals[0].Expression)
	assert.Equal(t, Caseless, literals[0].Flags)
	assert.Equal(t, "a/b", literals[1].Expression)
	assert.Equal(t, "plain", literals[2].Expression)
	assert.Equal(t, 0, literals[2].ID)

	_, err = ParseLiteral("/foo/s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported for literals")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("stream")
	require.NoError(t, err)
	assert.Equal(t, StreamMode, m)
	assert.Equal(t, "STREAM|SOM_HORIZON_MEDIUM", (StreamMode | SomHorizonMediumMode).String())

	_, err = ParseMode("sideways")
	require.Error(t, err)
}

func TestParseDbInfo(t *testing.T) {
	info, err := ParseDbInfo("Version: 5.4.2 Features: AVX2 Mode: BLOCK")
	require.NoError(t, err)
	assert.Equal(t, "5.4.2", info.Version)
	assert.Equal(t, "AVX2", info.Features)
	assert.Equal(t, BlockMode, info.Mode)

	info, err = ParseDbInfo("Version: 5.4.2 Features:  Mode: STREAM")
	require.NoError(t, err)
	assert.Empty(t, info.Features)
	assert.Equal(t, StreamMode, info.Mode)

	_, err = ParseDbInfo("garbage")
	require.Error(t, err)
}

func TestHsError(t *testing.T) {
	assert.Equal(t, "scratch already in use", ErrScratchInUse.Error())
	assert.Equal(t, -10, ErrScratchInUse.Code())
	assert.Contains(t, HsError(-99).Error(), "-99")
	assert.ErrorIs(t, ErrArchError, ErrPlatformUnsupported)
	assert.ErrorIs(t, serializationError(ErrDatabaseVersionError), ErrSerialization)
	assert.ErrorIs(t, serializationError(ErrDatabaseVersionError), ErrDatabaseVersionError)

	var err error = &CompileError{Message: "bad", Expression: 2}
	assert.ErrorIs(t, err, ErrCompilerError)
	assert.Equal(t, "compile error in expression 2: bad", err.Error())
	assert.True(t, IsTerminated(ErrScanTerminated))
}
