// Package input loads the per-job values that drive a run.
package input

import (
	"bufio"
	"os"
	"strings"

	"fanout/internal/apperrors"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// LoadLines reads path and returns its lines in order, with line terminators
// stripped and surrounding whitespace trimmed. Blank lines are kept as empty
// strings; a trailing newline does not add an extra line.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.InputRead(path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.InputRead(path, err)
	}
	return lines, nil
}
