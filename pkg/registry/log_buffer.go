package registry

import (
	"strings"

	"github.com/peauc/lazycompose/pkg/utils"
	"github.com/sasha-s/go-deadlock"
)

// LogBuffer is a bounded, line-oriented text buffer. Once it holds maxLines
// lines the oldest ones are dropped.
type LogBuffer struct {
	mutex    deadlock.Mutex
	lines    []string
	start    int
	maxLines int
}

// NewLogBuffer returns an empty buffer keeping at most maxLines lines. A
// non-positive maxLines means unbounded.
func NewLogBuffer(maxLines int) *LogBuffer {
	return &LogBuffer{maxLines: maxLines}
}

// AppendLine adds one line. A trailing newline is not expected.
func (b *LogBuffer) AppendLine(line string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.appendLocked(line)
}

func (b *LogBuffer) appendLocked(line string) {
	if b.maxLines <= 0 || len(b.lines) < b.maxLines {
		b.lines = append(b.lines, line)
		return
	}

	b.lines[b.start] = line
	b.start = (b.start + 1) % b.maxLines
}

// SetTextIfEmpty replaces the contents with text, but only if nothing has
// been written yet. It reports whether it wrote anything.
func (b *LogBuffer) SetTextIfEmpty(text string) bool {
	lines := utils.SplitLines(text)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if len(b.lines) > 0 {
		return false
	}
	for _, line := range lines {
		b.appendLocked(line)
	}
	return true
}

// Clear empties the buffer
func (b *LogBuffer) Clear() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.lines = nil
	b.start = 0
}

// Lines returns a copy of the buffered lines, oldest first
func (b *LogBuffer) Lines() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	result := make([]string, 0, len(b.lines))
	result = append(result, b.lines[b.start:]...)
	result = append(result, b.lines[:b.start]...)
	return result
}

// Len is the number of buffered lines
func (b *LogBuffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return len(b.lines)
}

// String returns the buffer as newline-terminated text
func (b *LogBuffer) String() string {
	lines := b.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
