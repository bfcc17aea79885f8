// Package queries holds the read side: order detail, the fleet dashboard and
// the purchasing queue. Handlers read straight from the tables with raw SQL
// and never go through the aggregate.
package queries

import "time"

const defaultReadTimeout = 5 * time.Second

func readTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultReadTimeout
	}
	return d
}
