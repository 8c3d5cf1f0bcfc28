package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProgress(t *testing.T) {
	type scenario struct {
		testName         string
		line             string
		expectedProgress string
		expectedOk       bool
	}

	scenarios := []scenario{
		{"ratio", "12.5MB/25MB", "Downloading 50%", true},
		{"ratio in pull output", " a1b2c3 Downloading [=====>     ]  12.5MB/25MB", "Downloading 50%", true},
		{"extracting ratio", "a1b2c3 Extracting [==>   ]  1KiB/4KiB", "Extracting 25%", true},
		{"prefix up to colon is dropped", "a1b2c3: Downloading 3.2kB/6.4kB", "Downloading 50%", true},
		{"percent token wins", "redis Pulling 42%", "42%", true},
		{"ratio clamped", "30MB/25MB", "Downloading 100%", true},
		{"zero total is ignored", "a1b2c3 Downloading 0B/0B", "Downloading", true},
		{"pull complete", "a1b2c3 Pull complete", "Pull complete", true},
		{"already exists", "a1b2c3 Already exists", "Already exists", true},
		{"waiting", "a1b2c3 Waiting", "Waiting", true},
		{"fs layer", "a1b2c3 Pulling fs layer", "Pulling fs layer", true},
		{"download complete", "a1b2c3 Download complete", "Download complete", true},
		{"nothing useful", "redis Pulled", "", false},
		{"empty", "", "", false},
		{"image reference is not a ratio", "Pulling library/redis", "", false},
	}

	for _, s := range scenarios {
		t.Run(s.testName, func(t *testing.T) {
			progress, ok := ExtractProgress(s.line)
			assert.Equal(t, s.expectedOk, ok)
			assert.Equal(t, s.expectedProgress, progress)
		})
	}
}

func TestParseSize(t *testing.T) {
	type scenario struct {
		value         string
		expectedBytes float64
		expectedOk    bool
	}

	scenarios := []scenario{
		{"1KiB", 1024, true},
		{"1MB", 1000000, true},
		{"1kb", 1000, true},
		{"2GiB", 2 * 1024 * 1024 * 1024, true},
		{"1TB", 1e12, true},
		{"512", 512, true},
		{"512B", 512, true},
		{"12.5MB", 12500000, true},
		{"1.5MiB", 1.5 * 1024 * 1024, true},
		{"MB", 0, false},
		{"12XB", 0, false},
		{"", 0, false},
		{"1.2.3MB", 0, false},
	}

	for _, s := range scenarios {
		t.Run(s.value, func(t *testing.T) {
			bytes, ok := ParseSize(s.value)
			assert.Equal(t, s.expectedOk, ok)
			assert.InDelta(t, s.expectedBytes, bytes, 0.001)
		})
	}
}
