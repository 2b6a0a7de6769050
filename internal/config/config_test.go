package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FOLIO_STORAGE_DRIVER", "")
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, "/admin-acesso-privado", cfg.Server.AdminLoginPath)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, 1920, cfg.Images.MaxWidth)
	assert.InDelta(t, 0.8, cfg.Images.Quality, 1e-9)
	assert.Equal(t, 1024*1024, cfg.Images.CompressThresholdBytes())
	assert.Equal(t, int64(5*1024*1024), cfg.Images.MaxUploadBytes())
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 14, cfg.Paths.LogRetentionDays)
}

func TestRuntimePathsFollowConfigFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.yml")
	body := "paths:\n  logs: var/logs\n  static: /srv/folio/static\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "var", "logs"), cfg.LogDir())
	assert.Equal(t, "/srv/folio/static", cfg.StaticDir())

	cfg.Paths.Static = ""
	assert.Equal(t, filepath.Join(dir, "static"), cfg.StaticDir())
}

func TestResolvePathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg := &AppConfig{baseDir: "/etc/folio"}

	tests := []struct {
		name, raw, want string
	}{
		{"home", "~/logs", filepath.Join(home, "logs")},
		{"relative", "./data/../logs", "/etc/folio/logs"},
		{"fallback", " ", "/etc/folio/static"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.resolvePath(tt.raw, "static"))
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  prot: 80\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestLoadValidatesPort(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 70000\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), path)
}

func TestLoadRequiresBucketForS3(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: s3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.s3.bucket")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestNormalizeAdminLoginPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  admin_login_path: ' secret-door/ '\n"))
	require.NoError(t, err)
	assert.Equal(t, "/secret-door", cfg.Server.AdminLoginPath)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"PORT":             "9090",
		"FOLIO_DSN":        "u:p@tcp(db:3306)/x",
		"FOLIO_JWT_SECRET": " s3cret ",
		"FOLIO_S3_BUCKET":  "media",
		"ADMIN_EMAIL":      "owner@example.com",
		"FOLIO_NATS_URL":   "",
	}
	cfg := defaultAppConfig()
	cfg.Events.NATSURL = "nats://keep"
	applyEnv(&cfg, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "u:p@tcp(db:3306)/x", cfg.Database.DSNValue())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "media", cfg.Storage.S3.Bucket)
	assert.Equal(t, "owner@example.com", cfg.Admin.Email)
	assert.Equal(t, "nats://keep", cfg.Events.NATSURL)
}

func TestDSNValueFromParts(t *testing.T) {
	parseTime := false
	cfg := DatabaseRuntimeConfig{
		Host:      "db.internal",
		Port:      3307,
		User:      "folio",
		Password:  "pw",
		Name:      "portfolio",
		ParseTime: &parseTime,
	}
	assert.Equal(t,
		"folio:pw@tcp(db.internal:3307)/portfolio?charset=utf8mb4&loc=Local&parseTime=false",
		cfg.DSNValue())
}

func TestRedisURLValue(t *testing.T) {
	tests := []struct {
		name string
		cfg  RedisRuntimeConfig
		want string
	}{
		{"raw url without scheme", RedisRuntimeConfig{URL: "cache:6379/2"}, "redis://cache:6379/2"},
		{"parts", RedisRuntimeConfig{Host: "cache", Port: 6380, DB: 1, Password: "pw"}, "redis://:pw@cache:6380/1"},
		{"tls", RedisRuntimeConfig{Host: "cache", Port: 6379, TLS: true}, "rediss://cache:6379/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.URLValue())
		})
	}
}

func TestS3UsePathStyle(t *testing.T) {
	assert.False(t, S3Config{}.UsePathStyle())
	assert.True(t, S3Config{Endpoint: "https://minio.local"}.UsePathStyle())
	off := false
	assert.False(t, S3Config{Endpoint: "https://minio.local", PathStyle: &off}.UsePathStyle())
}
