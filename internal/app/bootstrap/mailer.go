package bootstrap

import (
	appconfig "github.com/praxisflow/praxisflow/internal/config"
	"github.com/praxisflow/praxisflow/internal/notify"
	"github.com/praxisflow/praxisflow/pkg/logging"
)

// BuildMailer returns the SendGrid sender when an API key is configured,
// otherwise the stub sender that only logs.
func BuildMailer(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg != nil {
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("sendgrid mailer enabled", "from", cfg.SendGridFromEmail)
			return sender
		}
	}
	logger.Info("no sendgrid key configured; using stub mailer")
	return notify.NewStubEmailSender(logger)
}
