// Package ratelimiter implements a token bucket limiter with in-memory and
// Redis backends, plus an HTTP middleware keyed by client IP.
//
//	limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//		Capacity:       30,
//		RefillRate:     1,
//		RefillInterval: 2 * time.Second,
//	})
//	r.Use(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP))
//
// A request is allowed when the bucket holds enough tokens. Denied requests
// do not drain the bucket further.
package ratelimiter
