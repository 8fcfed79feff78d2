package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffForMonotonic(t *testing.T) {
	var prev time.Duration
	for attempt := 1; attempt <= len(backoffSchedule); attempt++ {
		got := backoffFor(attempt)
		assert.GreaterOrEqual(t, got, prev, "attempt %d backoff should not decrease", attempt)
		prev = got
	}
}

func TestBackoffForClampsAtTenSeconds(t *testing.T) {
	for _, attempt := range []int{len(backoffSchedule), len(backoffSchedule) + 1, 100} {
		assert.Equal(t, 10*time.Second, backoffFor(attempt), "attempt %d", attempt)
	}
}

func TestBackoffForFirstAttemptIsOneSecond(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffFor(1))
}

func TestBackoffForHandlesNonPositiveAttempt(t *testing.T) {
	assert.Equal(t, backoffSchedule[0], backoffFor(0))
	assert.Equal(t, backoffSchedule[0], backoffFor(-3))
}
