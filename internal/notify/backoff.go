package notify

import (
	"math/rand/v2"
	"time"
)

const maxBackoffShift = 20

// exponentialBackoff 返回 base * 2^attempt，attempt 超界时截断
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return base * time.Duration(1<<attempt)
}

// fullJitter 返回 [0, delay) 区间的随机等待
func fullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(delay)))
}
