package v1

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var errInvalidDueDate = errors.New("invalid due date")

// dueDateSelectors are the six discrete pickers of the new-task form.
// All of them must be populated for a due date to be attached; if any
// is empty the due date is treated as unset, never as partial.
type dueDateSelectors struct {
	Day    string `json:"day"`
	Month  string `json:"month"`
	Year   string `json:"year"`
	Hour   string `json:"hour"`
	Minute string `json:"minute"`
	AmPm   string `json:"ampm"`
}

func (s dueDateSelectors) empty() bool {
	return s.Day == "" || s.Month == "" || s.Year == "" ||
		s.Hour == "" || s.Minute == "" || s.AmPm == ""
}

// assembleDueDate combines the selectors into one absolute timestamp.
// The 12-hour clock converts as: PM with hour < 12 adds 12; AM with
// hour == 12 becomes 0; otherwise the hour is unchanged. The day
// range is a fixed 1-31 regardless of month; anything further is left
// to time.Date's normalization.
func assembleDueDate(now time.Time, sel dueDateSelectors) (*time.Time, error) {
	if sel.empty() {
		return nil, nil
	}

	day, err := selectorInRange(sel.Day, 1, 31)
	if err != nil {
		return nil, fmt.Errorf("%w: day: %w", errInvalidDueDate, err)
	}
	month, err := selectorInRange(sel.Month, 1, 12)
	if err != nil {
		return nil, fmt.Errorf("%w: month: %w", errInvalidDueDate, err)
	}
	year, err := selectorInRange(sel.Year, now.Year(), now.Year()+4)
	if err != nil {
		return nil, fmt.Errorf("%w: year: %w", errInvalidDueDate, err)
	}
	hour, err := selectorInRange(sel.Hour, 1, 12)
	if err != nil {
		return nil, fmt.Errorf("%w: hour: %w", errInvalidDueDate, err)
	}

	minute, err := strconv.Atoi(sel.Minute)
	if err != nil {
		return nil, fmt.Errorf("%w: minute: %w", errInvalidDueDate, err)
	}
	switch minute {
	case 0, 15, 30, 45:
	default:
		return nil, fmt.Errorf("%w: minute %d not on a quarter", errInvalidDueDate, minute)
	}

	switch sel.AmPm {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		return nil, fmt.Errorf("%w: ampm must be am or pm", errInvalidDueDate)
	}

	due := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return &due, nil
}

func selectorInRange(value string, min, max int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, min, max)
	}
	return n, nil
}
