package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidDay  = errors.New("invalid weekday")
	ErrInvalidTime = errors.New("invalid time of day")
)

// weekdayCodes maps 0=Sunday..6=Saturday to the scheduler's day codes.
var weekdayCodes = [7]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// DayCode returns the three-letter code for a weekday number.
func DayCode(day int) (string, error) {
	if day < 0 || day >= len(weekdayCodes) {
		return "", fmt.Errorf("%w: %d (want 0-6)", ErrInvalidDay, day)
	}
	return weekdayCodes[day], nil
}

// Recurrence is a weekly trigger: a time of day on a set of weekdays.
type Recurrence struct {
	Hour   int
	Minute int
	Days   []int
}

// NewRecurrence validates an "HH:MM" clock and weekday list. Duplicate days
// are dropped; the remaining order is kept.
func NewRecurrence(clock string, days []int) (Recurrence, error) {
	h, m, err := parseClock(clock)
	if err != nil {
		return Recurrence{}, err
	}
	if len(days) == 0 {
		return Recurrence{}, fmt.Errorf("%w: no days selected", ErrInvalidDay)
	}

	seen := make(map[int]bool, len(days))
	uniq := make([]int, 0, len(days))
	for _, d := range days {
		if _, err := DayCode(d); err != nil {
			return Recurrence{}, err
		}
		if !seen[d] {
			seen[d] = true
			uniq = append(uniq, d)
		}
	}
	return Recurrence{Hour: h, Minute: m, Days: uniq}, nil
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: %q (want HH:MM)", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: minute in %q", ErrInvalidTime, s)
	}
	return h, m, nil
}

// Clock renders the start time the way schtasks /st expects it.
func (r Recurrence) Clock() string {
	return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
}

// DayString joins the day codes, e.g. "MON,WED".
func (r Recurrence) DayString() string {
	codes := make([]string, len(r.Days))
	for i, d := range r.Days {
		codes[i] = weekdayCodes[d]
	}
	return strings.Join(codes, ",")
}

// CronSpec expresses the recurrence as a standard five-field cron line.
func (r Recurrence) CronSpec() string {
	days := make([]string, len(r.Days))
	for i, d := range r.Days {
		days[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%d %d * * %s", r.Minute, r.Hour, strings.Join(days, ","))
}

// Next returns the first firing strictly after from, in from's location.
func (r Recurrence) Next(from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(r.CronSpec())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse recurrence %q: %w", r.CronSpec(), err)
	}
	return sched.Next(from), nil
}
