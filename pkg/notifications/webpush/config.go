package webpush

import "time"

// Config holds the VAPID key pair used to sign push requests.
type Config struct {
	PublicKey  string        `env:"VAPID_PUBLIC_KEY"`
	PrivateKey string        `env:"VAPID_PRIVATE_KEY"`
	Subject    string        `env:"VAPID_SUBJECT" envDefault:"mailto:admin@example.com"`
	TTL        time.Duration `env:"WEBPUSH_TTL" envDefault:"24h"`
}

func (c Config) Enabled() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}
