package session

import "time"

// backoffSchedule is the shared reconnect backoff policy from spec.md
// §4.1: the kth consecutive failed attempt waits
// backoffSchedule[min(k-1, len-1)] before the next attempt. The first
// attempt of an episode runs immediately.
var backoffSchedule = []time.Duration{
	1000 * time.Millisecond,
	1000 * time.Millisecond,
	2000 * time.Millisecond,
	3000 * time.Millisecond,
	5000 * time.Millisecond,
	5000 * time.Millisecond,
	10000 * time.Millisecond,
}

// backoffFor returns the delay before the attempt-th reconnect try,
// where attempt is 1-based and counts failed attempts so far.
func backoffFor(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return backoffSchedule[idx]
}
