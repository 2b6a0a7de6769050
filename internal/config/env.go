package config

import (
	"strconv"
	"strings"
)

// lookupFunc matches os.LookupEnv so tests can inject a fake environment.
type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *AppConfig, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Server.Port = port
		}
	}
	str("FOLIO_ENV", &cfg.Server.Env)
	str("FOLIO_PUBLIC_URL", &cfg.Server.PublicURL)
	str("FOLIO_DSN", &cfg.Database.DSN)
	str("FOLIO_REDIS_URL", &cfg.Redis.URL)
	str("FOLIO_JWT_SECRET", &cfg.JWTSecret)
	str("FOLIO_NATS_URL", &cfg.Events.NATSURL)
	str("FOLIO_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("FOLIO_S3_ENDPOINT", &cfg.Storage.S3.Endpoint)
	str("FOLIO_S3_REGION", &cfg.Storage.S3.Region)
	str("FOLIO_S3_BUCKET", &cfg.Storage.S3.Bucket)
	str("FOLIO_S3_ACCESS_KEY_ID", &cfg.Storage.S3.AccessKeyID)
	str("FOLIO_S3_SECRET_ACCESS_KEY", &cfg.Storage.S3.SecretAccessKey)
	str("FOLIO_S3_CUSTOM_DOMAIN", &cfg.Storage.S3.CustomDomain)
	str("ADMIN_EMAIL", &cfg.Admin.Email)
	str("ADMIN_PASSWORD", &cfg.Admin.Password)
}
