// Package handler turns typed functions into http.HandlerFunc values.
//
// Wrap binds the request into R with the configured binders, runs the
// decorators and the handler, and renders the returned Response. Binding and
// rendering failures go to an ErrorHandler; NewErrorHandler logs them and
// answers with the JSON error envelope:
//
//	{"error":{"code":"validation_error","message":"...","details":{"endpoint":["is required"]}}}
//
// HTTPError and ValidationError (and validator.ValidationErrors) pick the
// status code; anything else is a 500.
package handler
