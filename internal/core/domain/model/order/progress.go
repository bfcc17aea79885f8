package order

import (
	"errors"
	"fmt"

	"separation/internal/pkg/errs"
)

// Progress is the derived resolved/total ratio of an order.
type Progress struct {
	resolved int
	total    int
}

// NewProgress validates 0 <= resolved <= total.
func NewProgress(resolved, total int) (Progress, error) {
	if total < 0 {
		return Progress{}, errs.NewValueIsOutOfRangeError("total", total, 0, nil)
	}
	if resolved < 0 || resolved > total {
		return Progress{}, errs.NewValueIsOutOfRangeErrorWithCause(
			"resolved", resolved, 0, total,
			errors.New("resolved lines cannot exceed total lines"),
		)
	}
	return Progress{resolved: resolved, total: total}, nil
}

// ProgressOf counts the resolved lines of lines.
func ProgressOf(lines []*LineItem) Progress {
	p := Progress{total: len(lines)}
	for _, l := range lines {
		if l.State().IsResolved() {
			p.resolved++
		}
	}
	return p
}

func (p Progress) Resolved() int { return p.resolved }
func (p Progress) Total() int { return p.total }

// Missing is total minus resolved.
func (p Progress) Missing() int {
	return p.total - p.resolved
}

// IsComplete reports 100% progress. An order with no lines is never complete.
func (p Progress) IsComplete() bool {
	return p.total > 0 && p.resolved == p.total
}

// Percent returns the resolved share in [0, 100].
func (p Progress) Percent() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.resolved) * 100 / float64(p.total)
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d", p.resolved, p.total)
}
