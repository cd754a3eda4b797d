package mpesa

import "os"

// Config carries the daraja merchant credentials and endpoints. It is built
// once in main and injected; nothing in this package reads the environment
// after startup.
type Config struct {
	BaseURL        string
	ShortCode      string
	PassKey        string
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
}

// Values that show up when someone deploys with an unedited .env template.
// AccessToken refuses to run with any of these.
var placeholderValues = map[string]bool{
	"":                     true,
	"your_consumer_key":    true,
	"your_consumer_secret": true,
	"your_passkey":         true,
	"changeme":             true,
}

func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL:        os.Getenv("MPESA_BASE_URL"),
		ShortCode:      os.Getenv("MPESA_SHORTCODE"),
		PassKey:        os.Getenv("MPESA_PASSKEY"),
		ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://sandbox.safaricom.co.ke"
	}
	if cfg.ShortCode == "" {
		cfg.ShortCode = "174379" // daraja sandbox paybill
	}
	return cfg
}

func (c Config) checkCredentials() error {
	if placeholderValues[c.ConsumerKey] || placeholderValues[c.ConsumerSecret] {
		return &AuthError{Message: "missing or placeholder M-Pesa credentials, set MPESA_CONSUMER_KEY and MPESA_CONSUMER_SECRET"}
	}
	return nil
}
