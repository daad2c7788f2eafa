package worker

import "math"

// Backoff determines how long to wait before retrying a failed job.
// The delay grows exponentially with each retry, capped at one hour.
func Backoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600
	}
	return backoff
}
