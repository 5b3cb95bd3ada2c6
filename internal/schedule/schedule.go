// Package schedule parses cron expressions and computes run times.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/landingscout/landingscout/internal/scout"
)

// Validate checks that expr parses to a valid recurring trigger.
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("%w: %v", scout.ErrInvalidSchedule, err)
	}
	return nil
}

// Next returns the first activation of expr strictly after from.
func Next(expr string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", scout.ErrInvalidSchedule, err)
	}
	return sched.Next(from), nil
}
