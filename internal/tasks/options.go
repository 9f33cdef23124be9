package tasks

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateSchedule accepts standard five-field cron expressions and
// descriptors such as "@hourly" or "@every 30m".
func ValidateSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// NextRun reports when expr fires next after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return schedule.Next(from), nil
}
