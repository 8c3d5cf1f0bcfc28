package utils

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-errors/errors"
	"github.com/mattn/go-runewidth"
)

// SplitLines takes a multiline string and splits it on newlines
// currently we are also stripping \r's which may have adverse effects for
// windows users (but no issues have been raised yet)
func SplitLines(multilineString string) []string {
	multilineString = strings.ReplaceAll(multilineString, "\r", "")
	if multilineString == "" || multilineString == "\n" {
		return make([]string, 0)
	}
	lines := strings.Split(multilineString, "\n")
	if lines[len(lines)-1] == "" {
		return lines[:len(lines)-1]
	}
	return lines
}

// NormalizeWhitespace collapses runs of whitespace into ", " separators, which
// is how templated lists from docker inspect read best on one line.
func NormalizeWhitespace(value string) string {
	return strings.Join(strings.Fields(value), ", ")
}

// ColoredString takes a string and a colour attribute and returns a colored
// string with that attribute
func ColoredString(str string, colorAttribute color.Attribute) string {
	colour := color.New(colorAttribute)
	return ColoredStringDirect(str, colour)
}

// ColoredStringDirect used for aggregating a few color attributes rather than
// just sending a single one
func ColoredStringDirect(str string, colour *color.Color) string {
	return colour.SprintFunc()(str)
}

// TruncateWithEllipsis shortens str to at most limit display cells
func TruncateWithEllipsis(str string, limit int) string {
	if runewidth.StringWidth(str) <= limit {
		return str
	}
	return runewidth.Truncate(str, limit, "…")
}

// SafeTruncate cuts str down to limit bytes, if it is longer
func SafeTruncate(str string, limit int) string {
	if len(str) > limit {
		return str[0:limit]
	}
	return str
}

// WithPadding pads a string as much as you want
func WithPadding(str string, padding int) string {
	width := runewidth.StringWidth(str)
	if padding < width {
		return str
	}
	return str + strings.Repeat(" ", padding-width)
}

var decoloriseRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Decolorise strips a string of color
func Decolorise(str string) string {
	return decoloriseRegexp.ReplaceAllString(str, "")
}

// RenderTable aligns the columns of rows, ignoring color codes when
// measuring. The last column is never padded.
func RenderTable(rows [][]string) string {
	widths := []int{}
	for _, row := range rows {
		for i, cell := range row {
			width := runewidth.StringWidth(Decolorise(cell))
			if i == len(widths) {
				widths = append(widths, width)
			} else if width > widths[i] {
				widths[i] = width
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			padding := widths[i] - runewidth.StringWidth(Decolorise(cell))
			cells[i] = cell + strings.Repeat(" ", padding)
		}
		lines = append(lines, strings.TrimRight(strings.Join(cells, " "), " "))
	}
	return strings.Join(lines, "\n")
}

// CloseMany closes a slice of closers and returns the first error
func CloseMany(closers []io.Closer) error {
	errorsList := make([]error, 0, len(closers))
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			errorsList = append(errorsList, err)
		}
	}
	if len(errorsList) > 0 {
		return errors.Wrap(errorsList[0], 0)
	}
	return nil
}

// PollUntil calls check up to attempts times, sleeping interval between
// calls, and returns true as soon as check does. It gives up early when ctx
// is done.
func PollUntil(ctx context.Context, interval time.Duration, attempts int, check func() bool) bool {
	for attempt := 0; attempt < attempts; attempt++ {
		if check() {
			return true
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
	return false
}

// SleepContext waits for d or until ctx is done, whichever comes first. It
// returns false if ctx ended the wait.
func SleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
