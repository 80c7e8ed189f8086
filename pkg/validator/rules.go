package validator

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// E.164 with optional leading +.
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

func OneOf[T comparable](field string, value T, options []T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(options, value) },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be one of: %v", options)},
	}
}

func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			_, domain, ok := strings.Cut(addr.Address, "@")
			return ok && strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// ValidURLWithScheme requires an absolute URL with a host and one of schemes.
func ValidURLWithScheme(field, value string, schemes ...string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.ParseRequestURI(strings.TrimSpace(value))
			return err == nil && u.Host != "" && slices.Contains(schemes, u.Scheme)
		},
		Error: ValidationError{Field: field, Message: "must be a valid " + strings.Join(schemes, "/") + " URL"},
	}
}

// ValidPhone accepts international numbers; spaces, dashes and a
// "whatsapp:" prefix are ignored.
func ValidPhone(field, value string) Rule {
	return Rule{
		Check: func() bool { return phoneRegex.MatchString(NormalizePhone(value)) },
		Error: ValidationError{Field: field, Message: "must be a valid phone number in international format"},
	}
}

// ValidBase64URL accepts base64url with or without padding that decodes to
// exactly size bytes, or any non-empty length when size is 0.
func ValidBase64URL(field, value string, size int) Rule {
	return Rule{
		Check: func() bool {
			b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
			if err != nil || len(b) == 0 {
				return false
			}
			return size == 0 || len(b) == size
		},
		Error: ValidationError{Field: field, Message: "must be a base64url encoded key"},
	}
}

// NormalizePhone strips the formatting ValidPhone tolerates.
func NormalizePhone(value string) string {
	value = strings.TrimPrefix(strings.TrimSpace(value), "whatsapp:")
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(value)
}
