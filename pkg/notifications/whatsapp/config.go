package whatsapp

type Config struct {
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_WHATSAPP_FROM" envDefault:"whatsapp:+14155238886"`

	AccessToken   string `env:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	GraphBaseURL  string `env:"WHATSAPP_GRAPH_URL" envDefault:"https://graph.facebook.com/v17.0"`
}

func (c Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

func (c Config) CloudAPIEnabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}
