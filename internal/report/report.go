// Package report reads persisted zone-hour metrics back for display.
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/zonerisk/internal/model"
)

// ErrInvalidHour is returned for an hour outside 0-23.
var ErrInvalidHour = errors.New("hour must be between 0 and 23")

// Querier reads the metrics of one hour, highest risk first.
type Querier interface {
	RiskByHour(ctx context.Context, hour int) ([]model.RiskRow, error)
}

// HourReport is the ranked risk table for one hour.
type HourReport struct {
	Hour  int
	Total int // zones active in the hour, before the limit
	Rows  []model.RiskRow
}

// ValidateHour returns ErrInvalidHour unless 0 <= hour <= 23.
func ValidateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: got %d", ErrInvalidHour, hour)
	}
	return nil
}

// ParseHour parses and validates a textual hour.
func ParseHour(s string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidHour, s)
	}
	return h, ValidateHour(h)
}

// ForHour validates hour and then queries q. The hour check happens before
// any storage access. A limit <= 0 returns every row.
func ForHour(ctx context.Context, q Querier, hour, limit int) (*HourReport, error) {
	if err := ValidateHour(hour); err != nil {
		return nil, err
	}
	rows, err := q.RiskByHour(ctx, hour)
	if err != nil {
		return nil, fmt.Errorf("querying hour %d: %w", hour, err)
	}
	rep := &HourReport{Hour: hour, Total: len(rows), Rows: rows}
	if limit > 0 && len(rows) > limit {
		rep.Rows = rows[:limit]
	}
	return rep, nil
}
