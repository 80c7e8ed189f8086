// Package validator provides rule-based input validation.
//
// Rules are built with helpers such as Required, ValidURLWithScheme or
// ValidBase64URL and evaluated together by Apply, which reports every failure
// at once as ValidationErrors:
//
//	err := validator.Apply(
//	    validator.Required("endpoint", req.Endpoint),
//	    validator.ValidURLWithScheme("endpoint", req.Endpoint, "https"),
//	)
package validator
