package reconcile

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff doubles base per check, caps at capDelay and adds up to
// a second of jitter so a batch of failures does not recheck in lockstep.
func ExponentialBackoff(check int, base, capDelay time.Duration) time.Duration {
	if check < 0 {
		check = 0
	}

	multiple := math.Pow(2, float64(check))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	return delay + time.Duration(rand.Intn(1000))*time.Millisecond
}
