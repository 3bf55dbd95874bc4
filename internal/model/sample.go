package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sampleFields is the number of space separated fields in a report line
const sampleFields = 6

// RoundSample is one observation of an engine during a round.
// Probe values are kept as scraped; an empty string means the probe found nothing.
type RoundSample struct {
	CheckCount int       `json:"check_count"`
	Memory     string    `json:"memory"`
	Load5      string    `json:"load5"`
	Load15     string    `json:"load15"`
	Latency    string    `json:"latency"`
	Timestamp  time.Time `json:"timestamp"`
}

// Line renders the sample as a report line
func (s RoundSample) Line() string {
	return fmt.Sprintf("%d %s %s %s %s %d\n",
		s.CheckCount, s.Memory, s.Load5, s.Load15, s.Latency, s.Timestamp.Unix())
}

// ParseSampleLine parses a report line produced by Line
func ParseSampleLine(line string) (RoundSample, error) {
	fields := strings.Split(strings.TrimSuffix(line, "\n"), " ")
	if len(fields) != sampleFields {
		return RoundSample{}, fmt.Errorf("invalid report line: expected %d fields, got %d", sampleFields, len(fields))
	}

	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return RoundSample{}, fmt.Errorf("invalid check count: %w", err)
	}

	ts, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return RoundSample{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	return RoundSample{
		CheckCount: count,
		Memory:     fields[1],
		Load5:      fields[2],
		Load15:     fields[3],
		Latency:    fields[4],
		Timestamp:  time.Unix(ts, 0),
	}, nil
}
