package tally

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// Record is one parsed input line.
type Record struct {
	Line  int    // 1-based line number in the input
	Key   string // first whitespace-separated field
	Value string // rest of the line, trimmed; empty when absent
}

// parseLine splits a line into key and value. ok is false for blank lines and
// comments.
func parseLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, "", true
	}

	return line[:i], strings.TrimSpace(line[i:]), true
}

// scanRecords calls fn for every record in src, stopping at the first error.
func scanRecords(src io.Reader, fn func(Record) error) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++

		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		if err := fn(Record{Line: line, Key: key, Value: value}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return nil
}
