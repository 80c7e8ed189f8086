// Package redisstore provides a Redis-backed subscription Store and event
// Deduper for deployments running more than one instance.
package redisstore
