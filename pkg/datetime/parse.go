// Package datetime provides month arithmetic for projection labels.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-planner/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in plan files and is also the
	// output month label format.
	DateTimeLayout = constants.DateTimeLayout
)

// OffsetDate shifts a month label by months, which may be negative.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return "", fmt.Errorf("failed to parse month %q: %w", date, err)
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// MonthLabels returns count consecutive month labels starting at start.
// An empty start yields relative labels M1, M2, ...
func MonthLabels(start string, count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("month count cannot be negative, got %d", count)
	}
	labels := make([]string, count)
	if start == "" {
		for i := range labels {
			labels[i] = fmt.Sprintf("M%d", i+1)
		}
		return labels, nil
	}

	if _, err := OffsetDate(start, DateTimeLayout, 0); err != nil {
		return nil, fmt.Errorf("invalid start month: %w", err)
	}
	for i := range labels {
		label, err := OffsetDate(start, DateTimeLayout, i)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}
