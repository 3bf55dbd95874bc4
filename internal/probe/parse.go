package probe

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s{2,}`)
	loadAvgPattern = regexp.MustCompile(`^[0-9.]+ ([0-9.]+) ([0-9.]+) [0-9]+/[0-9]+ [0-9]+$`)
	latencyPattern = regexp.MustCompile(`Active Service Latency:\s*[0-9.]* / [0-9.]* / ([0-9.]*) sec`)
)

// LoadAverage holds the 5 and 15 minute system load averages as reported by the kernel
type LoadAverage struct {
	Load5  string `json:"load5"`
	Load15 string `json:"load15"`
}

// CollapseSpaces replaces whitespace runs with a single space until nothing changes
func CollapseSpaces(s string) string {
	for {
		next := whitespaceRun.ReplaceAllString(s, " ")
		if next == s {
			return s
		}
		s = next
	}
}

// ParseMemory finds the first process listing line with a word whose base name
// is name and returns the whitespace separated column at index field. Paths that
// merely contain name, such as another engine's config file, do not match.
func ParseMemory(listing, name string, field int) (string, error) {
	for _, line := range strings.Split(listing, "\n") {
		if !mentions(line, name) {
			continue
		}

		fields := strings.Split(CollapseSpaces(line), " ")
		if field < 0 || field >= len(fields) {
			return "", fmt.Errorf("memory column %d of %q: %w", field, name, ErrNotFound)
		}
		return fields[field], nil
	}
	return "", fmt.Errorf("process %q: %w", name, ErrNotFound)
}

func mentions(line, name string) bool {
	for _, word := range strings.Fields(line) {
		if filepath.Base(word) == name {
			return true
		}
	}
	return false
}

// ParseLoadAverage extracts the 5 and 15 minute figures from a loadavg line
func ParseLoadAverage(content string) (LoadAverage, error) {
	m := loadAvgPattern.FindStringSubmatch(strings.TrimRight(content, "\n"))
	if m == nil {
		return LoadAverage{}, fmt.Errorf("load average %q: %w", content, ErrNotFound)
	}
	return LoadAverage{Load5: m[1], Load15: m[2]}, nil
}

// ParseLatency extracts the average active service latency from engine stats output
func ParseLatency(output string) (string, error) {
	m := latencyPattern.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("active service latency: %w", ErrNotFound)
	}
	return m[1], nil
}
