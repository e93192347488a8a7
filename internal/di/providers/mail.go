package providers

import (
	"github.com/samber/do/v2"

	"github.com/readalikeapp/readalike-server/internal/config"
	"github.com/readalikeapp/readalike-server/internal/logger"
	"github.com/readalikeapp/readalike-server/internal/mail"
	"github.com/readalikeapp/readalike-server/internal/service"
)

// ProvideMailer provides the digest mailer.
func ProvideMailer(i do.Injector) (*mail.Mailer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.SMTP.Enabled {
		log.Info("SMTP delivery enabled",
			"host", cfg.SMTP.Host,
			"port", cfg.SMTP.Port,
			"from", cfg.SMTP.From,
		)
	} else {
		log.Info("SMTP delivery disabled, digests will be logged only")
	}

	return mail.New(cfg.SMTP, cfg.Server, log.Logger), nil
}

// ProvideDigestService provides the recommendation digest service.
func ProvideDigestService(i do.Injector) (*service.DigestService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	mailer := do.MustInvoke[*mail.Mailer](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDigestService(storeHandle.Store, mailer, cfg.Digest, log.Logger), nil
}
