package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionCreateChat  = "create_chat"
	ActionSendMessage = "send_message"
	ActionWithdraw    = "withdraw"
	ActionWebhook     = "webhook"
)

// Policy is the refill interval and burst of one action's token bucket.
type Policy struct {
	Every time.Duration
	Burst int
}

var defaultPolicies = map[string]Policy{
	// 5 chats per hour
	ActionCreateChat: {Every: 12 * time.Minute, Burst: 5},
	// 10 messages per minute
	ActionSendMessage: {Every: 6 * time.Second, Burst: 10},
	ActionWithdraw:    {Every: time.Minute, Burst: 1},
	// 100 webhook deliveries per minute per source IP
	ActionWebhook: {Every: 600 * time.Millisecond, Burst: 100},
}

var fallbackPolicy = Policy{Every: 3 * time.Second, Burst: 20}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	buckets  map[string]*bucket
	policies map[string]Policy
	mutex    sync.Mutex
	now      func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithPolicies(defaultPolicies)
}

func NewRateLimiterWithPolicies(policies map[string]Policy) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		policies: policies,
		now:      time.Now,
	}
}

// Allow consumes a token for key/action. When the bucket is empty it returns
// false and how long until the next token.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	b := rl.bucket(key, action, now)

	reservation := b.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Tokens reports the tokens currently left for key/action.
func (rl *RateLimiter) Tokens(key, action string) float64 {
	now := rl.now()
	return rl.bucket(key, action, now).limiter.TokensAt(now)
}

func (rl *RateLimiter) bucket(key, action string, now time.Time) *bucket {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	id := key + ":" + action
	b, ok := rl.buckets[id]
	if !ok {
		policy, known := rl.policies[action]
		if !known {
			policy = fallbackPolicy
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Every(policy.Every), policy.Burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	return b
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for id, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine prunes idle buckets every 10 minutes until stop is closed.
func (rl *RateLimiter) StartCleanupRoutine(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-stop:
				return
			}
		}
	}()
}
