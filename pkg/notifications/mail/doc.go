// Package mail is the e-mail channel adapter built on pkg/email.
package mail
