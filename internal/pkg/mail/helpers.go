package mail

import "github.com/folio-space/core/internal/config"

// BuildMailConfig maps the runtime mail section onto a Config.
func BuildMailConfig(cfg config.MailConfig) Config {
	return Config{
		Enable:   cfg.Enable,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Pass:     cfg.Pass,
		From:     cfg.From,
		NotifyTo: cfg.NotifyTo,
	}
}
