// Package fcm is the Firebase Cloud Messaging channel adapter for mobile and
// web tokens. Unregistered, invalid and sender-mismatch tokens are reported as
// permanent failures so the registry drops them.
package fcm
