package metadata

import "sort"

// lineIndex records the newline positions of a file so byte offsets can be
// converted to 1-based line/column pairs.
type lineIndex struct {
	newlines []int64
}

func buildLineIndex(content []byte) *lineIndex {
	ix := &lineIndex{}
	for i, b := range content {
		if b == '\n' {
			ix.newlines = append(ix.newlines, int64(i))
		}
	}
	return ix
}

// locate converts a byte offset: line is 1 plus the number of newlines before
// the offset, column is the offset's distance past the line start plus 1.
func (ix *lineIndex) locate(offset int64) (line, column int) {
	n := sort.Search(len(ix.newlines), func(i int) bool {
		return ix.newlines[i] >= offset
	})

	line = n + 1
	var lineStart int64
	if n > 0 {
		lineStart = ix.newlines[n-1] + 1
	}
	column = int(offset-lineStart) + 1
	return line, column
}
