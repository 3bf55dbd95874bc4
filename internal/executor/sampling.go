package executor

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSampleSpec samples every five minutes
const DefaultSampleSpec = "@every 5m"

// SampleSchedule decides how long to wait between two samples
type SampleSchedule struct {
	spec     string
	schedule cron.Schedule
}

// NewSampleSchedule parses a standard cron expression or descriptor such as "@every 5m"
func NewSampleSchedule(spec string) (*SampleSchedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid sample schedule %q: %w", spec, err)
	}
	return &SampleSchedule{spec: spec, schedule: schedule}, nil
}

// EverySchedule samples at a constant interval, rounded to whole seconds
func EverySchedule(interval time.Duration) *SampleSchedule {
	return &SampleSchedule{
		spec:     "@every " + interval.String(),
		schedule: cron.Every(interval),
	}
}

// Next returns the sample time following t
func (s *SampleSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s *SampleSchedule) String() string {
	return s.spec
}
