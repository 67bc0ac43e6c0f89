package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoffJitterBounds(t *testing.T) {
	base := 2 * time.Second
	cap := 10 * time.Minute

	for attempt := 1; attempt <= 6; attempt++ {
		expected := base << (attempt - 1)
		if expected > cap {
			expected = cap
		}
		for i := 0; i < 200; i++ {
			d := nextBackoff(base, cap, attempt)
			assert.GreaterOrEqual(t, d, expected/2, "attempt %d", attempt)
			assert.Less(t, d, expected+expected/2, "attempt %d", attempt)
		}
	}
}

func TestNextBackoffCaps(t *testing.T) {
	base := time.Minute
	cap := 4 * time.Minute

	// Attempt 10 would be ~8.5h uncapped.
	d := nextBackoff(base, cap, 10)
	assert.GreaterOrEqual(t, d, cap/2)
	assert.Less(t, d, cap+cap/2)
}

func TestNextBackoffClampsInputs(t *testing.T) {
	assert.Positive(t, nextBackoff(0, 0, 0))
	assert.Positive(t, nextBackoff(-time.Second, -time.Minute, -3))
}
