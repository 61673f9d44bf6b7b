package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContext(t *testing.T) {
	const doc = "line1\nline2\nline3\nMATCH\nline5\nline6\nline7"
	tests := []struct {
		name          string
		content       string
		start, end    int
		lines         int
		before, after string
	}{
		{"two lines each side", doc, 18, 23, 2, "line2\nline3\n", "line5\nline6\n"},
		{"fewer lines than requested", doc, 18, 23, 10, "line1\nline2\nline3\n", "line5\nline6\nline7"},
		{"match at start", "MATCH\nb\nc\n", 0, 5, 3, "", "b\nc\n"},
		{"match at end", "a\nb\nMATCH", 4, 9, 2, "a\nb\n", ""},
		{"match mid-line", "a\nxx MATCH yy\nb", 5, 10, 1, "a\nxx ", " yy\n"},
		{"match includes newline", "a\nMATCH\nb\nc", 2, 8, 1, "a\n", "b\n"},
		{"empty match between lines", "l1\nl2\nl3\nl4\nl5", 6, 6, 2, "l1\nl2\n", "l3\nl4\n"},
		{"zero lines", doc, 18, 23, 0, "", ""},
		{"negative lines", doc, 18, 23, -1, "", ""},
		{"start past end", doc, 10, 5, 2, "", ""},
		{"end out of range", "short", 0, 100, 3, "", ""},
		{"start out of range", "short", 100, 100, 3, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := ExtractContext([]byte(tt.content), tt.start, tt.end, tt.lines)
			assert.Equal(t, tt.before, string(before), "before")
			assert.Equal(t, tt.after, string(after), "after")
		})
	}
}

func TestExtractContext_Copies(t *testing.T) {
	content := []byte("line1\nline2\nMATCH\nline4\n")
	before, after := ExtractContext(content, 12, 17, 1)
	for i := range content {
		content[i] = 'X'
	}
	assert.Equal(t, "line2\n", string(before))
	assert.Equal(t, "line4\n", string(after))
}
