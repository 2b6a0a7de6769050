package config

import "strings"

func (c *AppConfig) normalize() {
	c.Server = normalizeServerConfig(c.Server)
	c.Database = normalizeDatabaseConfig(c.Database)
	c.Redis = normalizeRedisConfig(c.Redis)
	c.Storage = normalizeStorageConfig(c.Storage)
	c.Images = normalizeImageConfig(c.Images)
	c.Events.NATSURL = strings.TrimSpace(c.Events.NATSURL)
	c.Events.Channel = strings.TrimSpace(c.Events.Channel)
	if c.Events.Channel == "" {
		c.Events.Channel = "folio:events"
	}
	c.Admin.Email = strings.ToLower(strings.TrimSpace(c.Admin.Email))
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.Paths.Logs = strings.TrimSpace(c.Paths.Logs)
	c.Paths.Static = strings.TrimSpace(c.Paths.Static)
	if c.Paths.LogRetentionDays < 0 {
		c.Paths.LogRetentionDays = 0
	}
}

func normalizeServerConfig(cfg ServerConfig) ServerConfig {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	cfg.AdminLoginPath = normalizeRoutePath(cfg.AdminLoginPath, defaultAdminLoginPath)
	cfg.PublicURL = strings.TrimSuffix(strings.TrimSpace(cfg.PublicURL), "/")
	if cfg.ContactRateLimit <= 0 {
		cfg.ContactRateLimit = defaultContactRateHits
	}
	if cfg.CacheTTLSeconds < 0 {
		cfg.CacheTTLSeconds = 0
	}
	return cfg
}

func normalizeDatabaseConfig(cfg DatabaseRuntimeConfig) DatabaseRuntimeConfig {
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Charset = strings.TrimSpace(cfg.Charset)
	cfg.Loc = strings.TrimSpace(cfg.Loc)

	if cfg.Host == "" {
		cfg.Host = defaultDBHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultDBPort
	}
	if cfg.User == "" {
		cfg.User = defaultDBUser
	}
	if cfg.Name == "" {
		cfg.Name = defaultDBName
	}
	if cfg.Charset == "" {
		cfg.Charset = defaultDBCharset
	}
	if cfg.Loc == "" {
		cfg.Loc = defaultDBLoc
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Scheme = strings.ToLower(strings.TrimSpace(cfg.Scheme))

	if cfg.Host == "" && cfg.URL == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	if cfg.Scheme == "" {
		if cfg.TLS {
			cfg.Scheme = "rediss"
		} else {
			cfg.Scheme = "redis"
		}
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeStorageConfig(cfg StorageConfig) StorageConfig {
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if cfg.Driver == "" {
		cfg.Driver = defaultStorageDriver
	}
	cfg.Prefix = strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if cfg.Prefix == "" {
		cfg.Prefix = defaultObjectPrefix
	}
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")

	cfg.S3.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.S3.Endpoint), "/")
	cfg.S3.Region = strings.TrimSpace(cfg.S3.Region)
	if cfg.S3.Region == "" {
		cfg.S3.Region = defaultS3Region
	}
	cfg.S3.Bucket = strings.TrimSpace(cfg.S3.Bucket)
	cfg.S3.AccessKeyID = strings.TrimSpace(cfg.S3.AccessKeyID)
	cfg.S3.SecretAccessKey = strings.TrimSpace(cfg.S3.SecretAccessKey)
	cfg.S3.CustomDomain = strings.TrimRight(strings.TrimSpace(cfg.S3.CustomDomain), "/")
	return cfg
}

func normalizeImageConfig(cfg ImageConfig) ImageConfig {
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = defaultMaxWidth
	}
	if cfg.Quality == 0 {
		cfg.Quality = defaultQuality
	}
	if cfg.CompressThresholdKB <= 0 {
		cfg.CompressThresholdKB = defaultCompressKB
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeRoutePath(raw, fallback string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return fallback
	}
	return "/" + trimmed
}

func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}
