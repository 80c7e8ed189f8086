// Package async provides small generic helpers for running work concurrently.
//
// Async starts a computation and returns a Future; AwaitContext lets a caller
// give up waiting on SDK calls that do not accept a context. Map fans a slice
// out over a bounded number of goroutines and keeps results in input order,
// which is how the dispatcher sends one event to many subscriptions.
package async
