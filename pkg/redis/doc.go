// Package redis connects to Redis with go-redis/v9 and exposes a readiness
// check. The subscription store and the event deduper in
// pkg/notifications/redisstore are built on the client returned by Connect.
package redis
