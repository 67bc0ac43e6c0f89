package queue

import (
	"math/rand/v2"
	"time"
)

// nextBackoff computes the delay before retry number attempt (1-based):
// exponential doubling from base, capped, with ±50% jitter so synchronized
// failures spread out instead of hammering a recovering dependency together.
func nextBackoff(base, cap time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if cap <= 0 {
		cap = 10 * time.Minute
	}
	if attempt < 1 {
		attempt = 1
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			d = cap
			break
		}
	}

	// Jitter across [d/2, d*3/2).
	half := d / 2
	return half + rand.N(d)
}
