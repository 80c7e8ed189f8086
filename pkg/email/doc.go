// Package email sends transactional mail through Postmark.
//
// NewPostmarkClient returns an EmailSender; API rejections surface as
// *PostmarkError so callers can tell a dead address (IsPermanent) from an
// outage.
package email
