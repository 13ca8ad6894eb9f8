package config

import "time"

// RateLimitConfig configures the Redis token bucket on seat locking,
// checkout and gate admission.  KeyStrategy is one of user_session
// (default), user, user_route or ip.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  By default a bucket
// holds 20 requests and regains one per second.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       max(1, envInt("RATE_LIMIT_CAPACITY", 20)),
		RefillTokens:   max(1, envInt("RATE_LIMIT_REFILL_TOKENS", 1)),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "user_session"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if burst := envInt("RATE_LIMIT_BURST", 0); burst > 0 {
		c.Capacity = burst
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	// idle buckets must outlive a few refill steps
	c.TTL = max(c.TTL, 5*c.RefillInterval)
	return c
}
