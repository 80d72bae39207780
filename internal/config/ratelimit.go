package config

import (
	"os"
	"strconv"
	"time"
)

// Bucket is one rate: a client may burst Burst requests and earns one
// more every Every.
type Bucket struct {
	Burst int
	Every time.Duration
}

// RateLimitConfig configures the Redis rate limiter.  Browse guards every
// public route per client; Write is the much tighter bucket in front of
// draft submission, guest-list registration and VIP validation.
type RateLimitConfig struct {
	Enabled bool
	Prefix  string
	Debug   bool
	Browse  Bucket
	Write   Bucket
}

// LoadRateLimitConfig reads RATE_LIMIT_* with sane floors.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:   envBool("RATE_LIMIT_DEBUG", false),
		Browse:  loadBucket("RATE_LIMIT", Bucket{Burst: 60, Every: time.Second}),
		Write:   loadBucket("RATE_LIMIT_WRITE", Bucket{Burst: 5, Every: 20 * time.Second}),
	}
}

func loadBucket(prefix string, def Bucket) Bucket {
	b := Bucket{
		Burst: envInt(prefix+"_BURST", def.Burst),
		Every: envDur(prefix+"_EVERY", def.Every),
	}
	if b.Burst < 1 {
		b.Burst = 1
	}
	if b.Every <= 0 {
		b.Every = def.Every
	}
	return b
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
