package coordinator

import (
	"math"
	"time"
)

// maxBackoff is the fixed one-hour cap from spec section 4.3.
const maxBackoff = time.Hour

// backoffDelay computes the retry delay for the k-th failed attempt
// (1-based) of a job with the given backoff base: min(base^k, 3600s).
//
// Grounded on backoff.go's backoffCounter.next, simplified to the
// spec's fixed law — no multiplier or jitter, since the spec pins the
// formula exactly.
func backoffDelay(base uint32, k uint32) time.Duration {
	if base == 0 {
		base = 1
	}
	seconds := math.Pow(float64(base), float64(k))
	capped := math.Min(seconds, maxBackoff.Seconds())
	return time.Duration(capped * float64(time.Second))
}
