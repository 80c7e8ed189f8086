// Package webhook holds the HTTP plumbing shared by provider adapters and the
// inbound order webhook.
//
// Sender.Post makes one JSON POST and classifies failures as permanent
// (ErrPermanentFailure) or transient (ErrTemporaryFailure, ErrTimeout), with an
// optional CircuitBreaker per provider. SignPayload, VerifySignature and
// VerifyMiddleware implement HMAC-SHA256 signing over "<timestamp>.<body>"
// carried in the X-Webhook-Signature and X-Webhook-Timestamp headers.
package webhook
