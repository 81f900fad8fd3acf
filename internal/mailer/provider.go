package mailer

import "fmt"

// Provider names accepted by New.
const (
	ProviderNone    = "none"
	ProviderSMTP    = "smtp"
	ProviderEmailJS = "emailjs"
)

// Config selects and configures a delivery provider.
type Config struct {
	Provider string
	SMTP     SMTPConfig
	EmailJS  EmailJSConfig
}

// New returns the Sender for cfg.Provider. An empty provider disables
// delivery.
func New(cfg Config) (Sender, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return Disabled{}, nil
	case ProviderSMTP:
		return NewSMTPSender(cfg.SMTP), nil
	case ProviderEmailJS:
		return NewEmailJSSender(cfg.EmailJS), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q (want smtp, emailjs or none)", cfg.Provider)
}
