package matcher

import "bytes"

// ExtractContext returns up to lines lines before start and after end. Both
// slices are copies, so keeping them does not pin content in memory.
func ExtractContext(content []byte, start, end int, lines int) (before, after []byte) {
	if lines <= 0 || start < 0 || end > len(content) || start > end {
		return nil, nil
	}
	if b := linesBefore(content, start, lines); len(b) > 0 {
		before = bytes.Clone(b)
	}
	if a := linesAfter(content, end, lines); len(a) > 0 {
		after = bytes.Clone(a)
	}
	return before, after
}

// linesBefore returns the text from the start of the lines-th line above
// start up to start.
func linesBefore(content []byte, start, lines int) []byte {
	pos := start
	for range lines + 1 {
		i := bytes.LastIndexByte(content[:pos], '\n')
		if i < 0 {
			return content[:start]
		}
		pos = i
	}
	return content[pos+1 : start]
}

// linesAfter returns the lines following end. A newline right at end
// belongs to the matched line.
func linesAfter(content []byte, end, lines int) []byte {
	if end >= len(content) {
		return nil
	}
	s := end
	if content[s] == '\n' {
		s++
	}
	pos := s
	for range lines {
		i := bytes.IndexByte(content[pos:], '\n')
		if i < 0 {
			return content[s:]
		}
		pos += i + 1
	}
	return content[s:pos]
}
