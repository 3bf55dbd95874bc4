package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundSampleLine(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		sample RoundSample
		want   string
	}{
		{
			name: "all probes found",
			sample: RoundSample{
				CheckCount: 40,
				Memory:     "12345",
				Load5:      "1.20",
				Load15:     "2.30",
				Latency:    "1.234",
				Timestamp:  ts,
			},
			want: "40 12345 1.20 2.30 1.234 1700000000\n",
		},
		{
			name: "missing probes",
			sample: RoundSample{
				CheckCount: 5,
				Timestamp:  ts,
			},
			want: "5     1700000000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := tt.sample.Line()
			assert.Equal(t, tt.want, line)

			fields := strings.Split(strings.TrimSuffix(line, "\n"), " ")
			assert.Len(t, fields, 6)

			parsed, err := ParseSampleLine(line)
			require.NoError(t, err)
			assert.Equal(t, tt.sample.CheckCount, parsed.CheckCount)
			assert.Equal(t, tt.sample.Memory, parsed.Memory)
			assert.Equal(t, tt.sample.Load5, parsed.Load5)
			assert.Equal(t, tt.sample.Load15, parsed.Load15)
			assert.Equal(t, tt.sample.Latency, parsed.Latency)
			assert.True(t, tt.sample.Timestamp.Equal(parsed.Timestamp))
		})
	}
}

func TestParseSampleLineInvalid(t *testing.T) {
	_, err := ParseSampleLine("5 100 1.0 2.0\n")
	assert.Error(t, err)

	_, err = ParseSampleLine("x 100 1.0 2.0 3.0 1700000000\n")
	assert.Error(t, err)
}

func TestConvergenceStateObserve(t *testing.T) {
	state := &ConvergenceState{Engine: "nagios"}
	assert.Equal(t, EngineStateEscalating, state.State())

	state.Observe(100, 600)
	assert.False(t, state.Converged)

	state.Observe(600, 600)
	assert.True(t, state.Converged)
	assert.Equal(t, EngineStateConverged, state.State())

	// terminal
	state.Observe(10, 600)
	assert.True(t, state.Converged)
	assert.Equal(t, 600.0, state.Latency)
}

func TestReportName(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "03_07_24_09_05_03_40", ReportName(ts, 40))
}
