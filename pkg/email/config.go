package email

type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
}

// Enabled reports whether enough is configured to send mail.
func (c Config) Enabled() bool {
	return c.PostmarkServerToken != "" && c.SenderEmail != ""
}
