// Package webpush is the Web Push channel adapter. Subscriptions carry the
// browser's push endpoint as EndpointKey and its p256dh and auth keys as
// credentials; requests are signed with the configured VAPID key pair.
package webpush
