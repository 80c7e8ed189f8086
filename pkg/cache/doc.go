// Package cache provides a generic in-memory LRU with per-entry expiry.
//
// PutIfAbsent is the building block for short-lived "seen" sets such as the
// in-process event deduper: the first writer for a key wins until the entry
// expires or is evicted.
package cache
