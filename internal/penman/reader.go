package penman

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	commentMarker = "#"
	graphOpener   = "("

	// maxLineSize bounds a single input line. Corpus files keep one graph
	// line per role, so this is far above anything legitimate.
	maxLineSize = 16 * 1024 * 1024
)

// ReadBlocks splits a stream into serialized graph blocks.
//
// Blank lines and comment lines are dropped everywhere, including inside an
// open block. A line starting with "(" closes the current block and opens a
// new one; any other line is appended to the open block. Lines seen before the
// first opener belong to no block and are discarded. Lines are trimmed, since
// indentation carries no meaning in the notation.
func ReadBlocks(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}
		if strings.HasPrefix(line, graphOpener) {
			flush()
			current = append(current, line)
			continue
		}
		if len(current) > 0 {
			current = append(current, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read graph blocks: %w", err)
	}
	flush()

	return blocks, nil
}
