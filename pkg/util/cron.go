package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts the five-field format and descriptors such as
// "@daily", the same dialect the asynq scheduler understands.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses expr. Seconds fields are rejected.
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// UpcomingRuns lists the next n activations of expr strictly after from, in UTC.
func UpcomingRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	if n < 1 {
		return nil, errors.New("run count must be positive")
	}
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	runs := make([]time.Time, 0, n)
	at := from.UTC()
	for len(runs) < n {
		at = schedule.Next(at)
		if at.IsZero() {
			break
		}
		runs = append(runs, at)
	}
	return runs, nil
}
