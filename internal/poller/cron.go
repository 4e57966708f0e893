package poller

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateCron checks a standard five-field cron expression.
func ValidateCron(expression string) error {
	if _, err := cron.ParseStandard(expression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return nil
}

// NextRun computes the next occurrence of a cron expression after the
// given instant, evaluated in the schedule's timezone. The returned
// time is UTC.
func NextRun(expression, timezone string, after time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
	}
	return schedule.Next(after.In(loc)).UTC(), nil
}
