package dispatcher

import (
	"math/rand/v2"
	"time"
)

// retryDelay returns the wait before retry number attempt (1-based): the
// initial delay doubled per attempt and capped at ceiling, less up to 20%
// jitter.
func retryDelay(attempt int, initial, ceiling time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := initial
	for i := 1; i < attempt && delay < ceiling; i++ {
		delay *= 2
	}
	delay = min(delay, ceiling)

	if jitter := int64(delay) / 5; jitter > 0 {
		delay -= time.Duration(rand.Int64N(jitter + 1))
	}
	return delay
}
