// Package whatsapp is the business-messaging channel. A Chain tries Twilio,
// then the WhatsApp Cloud API, then manual relay through the log, and
// reports which gateway delivered the message along with the ones that
// failed before it.
package whatsapp
