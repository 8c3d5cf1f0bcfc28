package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// progressKeywords are the pull phases we recognise when a line carries no
// numbers. Order matters: the first match wins.
var progressKeywords = []string{
	"Waiting",
	"Pulling fs layer",
	"Downloading",
	"Extracting",
	"Download complete",
	"Pull complete",
	"Already exists",
}

var sizeUnits = map[string]float64{
	"":    1,
	"b":   1,
	"kb":  1e3,
	"mb":  1e6,
	"gb":  1e9,
	"tb":  1e12,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
}

// ExtractProgress turns one line of `docker compose pull` output into a
// short progress label, e.g.
//
//	redis Downloading [=====>     ]  12.5MB/25MB  ->  "Downloading 50%"
//	redis Pull complete                           ->  "Pull complete"
//
// ok is false when the line says nothing about progress.
func ExtractProgress(line string) (string, bool) {
	rest := line
	if _, after, found := strings.Cut(line, ": "); found {
		rest = after
	}
	fields := strings.Fields(rest)

	for _, field := range fields {
		if len(field) > 1 && strings.HasSuffix(field, "%") {
			return field, true
		}
	}

	for _, field := range fields {
		percent, ok := ratioPercent(field)
		if !ok {
			continue
		}
		if strings.Contains(line, "Extracting") {
			return fmt.Sprintf("Extracting %d%%", percent), true
		}
		return fmt.Sprintf("Downloading %d%%", percent), true
	}

	for _, keyword := range progressKeywords {
		if strings.Contains(line, keyword) {
			return keyword, true
		}
	}

	return "", false
}

func ratioPercent(token string) (int, bool) {
	doneStr, totalStr, found := strings.Cut(token, "/")
	if !found {
		return 0, false
	}
	done, ok := ParseSize(doneStr)
	if !ok {
		return 0, false
	}
	total, ok := ParseSize(totalStr)
	if !ok || total <= 0 {
		return 0, false
	}

	percent := math.Round(done / total * 100)
	return int(math.Max(0, math.Min(100, percent))), true
}

// ParseSize reads sizes like "12.5MB", "1KiB" or "512" into bytes. Decimal
// units are powers of 1000, binary (…iB) units powers of 1024.
func ParseSize(value string) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	end := strings.IndexFunc(value, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if end == -1 {
		end = len(value)
	}
	if end == 0 {
		return 0, false
	}

	number, err := strconv.ParseFloat(value[:end], 64)
	if err != nil {
		return 0, false
	}
	multiplier, ok := sizeUnits[value[end:]]
	if !ok {
		return 0, false
	}
	return number * multiplier, true
}
