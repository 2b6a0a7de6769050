package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort           = 8080
	defaultEnv            = "development"
	defaultTimezone       = "America/Sao_Paulo"
	defaultAdminLoginPath = "/admin-acesso-privado"
	defaultDBHost         = "127.0.0.1"
	defaultDBPort         = 3306
	defaultDBUser         = "root"
	defaultDBPassword     = "password"
	defaultDBName         = "folio"
	defaultDBCharset      = "utf8mb4"
	defaultDBLoc          = "Local"
	defaultRedisHost      = "localhost"
	defaultRedisPort      = 6379
	defaultRedisDB        = 0

	defaultStorageDriver   = "local"
	defaultStaticDir       = "static"
	defaultObjectPrefix    = "portfolio"
	defaultS3Region        = "auto"
	defaultMaxWidth        = 1920
	defaultQuality         = 0.8
	defaultCompressKB      = 1024
	defaultMaxUploadMB     = 5
	defaultContactRateHits = 5
	defaultLogRetention    = 14
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Server    ServerConfig          `yaml:"server"`
	Database  DatabaseRuntimeConfig `yaml:"database"`
	Redis     RedisRuntimeConfig    `yaml:"redis"`
	Storage   StorageConfig         `yaml:"storage"`
	Images    ImageConfig           `yaml:"images"`
	Events    EventsConfig          `yaml:"events"`
	Mail      MailConfig            `yaml:"mail"`
	Admin     AdminBootstrapConfig  `yaml:"admin"`
	Paths     RuntimePathsConfig    `yaml:"paths"`
	JWTSecret string                `yaml:"jwt_secret"`

	baseDir string
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"` // "development" | "production"
	AllowedOrigins []string `yaml:"allowed_origins"`
	Timezone       string   `yaml:"timezone"`
	AdminLoginPath string   `yaml:"admin_login_path"`
	// PublicURL is the canonical site origin used in the sitemap. Empty means
	// the request host.
	PublicURL string `yaml:"public_url"`
	// ContactRateLimit is the number of contact submissions accepted per IP per minute.
	ContactRateLimit int `yaml:"contact_rate_limit"`
	CacheTTLSeconds  int `yaml:"cache_ttl_seconds"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type StorageConfig struct {
	Driver        string   `yaml:"driver"` // "local" | "s3"
	Prefix        string   `yaml:"prefix"`
	PublicBaseURL string   `yaml:"public_base_url"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyle       *bool  `yaml:"path_style"`
}

type ImageConfig struct {
	MaxWidth            int     `yaml:"max_width"`
	Quality             float64 `yaml:"quality"`
	CompressThresholdKB int     `yaml:"compress_threshold_kb"`
	MaxUploadMB         int     `yaml:"max_upload_mb"`
}

type EventsConfig struct {
	NATSURL     string `yaml:"nats_url"`
	RedisFanout bool   `yaml:"redis_fanout"`
	Channel     string `yaml:"channel"`
}

type MailConfig struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"pass"`
	From     string `yaml:"from"`
	NotifyTo string `yaml:"notify_to"`
}

// AdminBootstrapConfig seeds the first admin account for create-admin.
type AdminBootstrapConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RuntimePathsConfig struct {
	Logs   string `yaml:"logs"`
	Static string `yaml:"static"`
	// LogRetentionDays is how long daily log files are kept; 0 keeps them forever.
	LogRetentionDays int `yaml:"log_retention_days"`
}

// Load reads the YAML file at configPath, applies defaults, normalization and
// environment overrides. A missing file at the default path is not an error.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		if abs, err := filepath.Abs(path); err == nil {
			cfg.baseDir = filepath.Dir(abs)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnv(&cfg, os.LookupEnv)
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w in %q", err, path)
	}
	return &cfg, nil
}

func decode(content []byte, cfg *AppConfig) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:             defaultPort,
			Env:              defaultEnv,
			Timezone:         defaultTimezone,
			AdminLoginPath:   defaultAdminLoginPath,
			ContactRateLimit: defaultContactRateHits,
			CacheTTLSeconds:  60,
		},
		Database: DatabaseRuntimeConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
			Loc:      defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
			Prefix: defaultObjectPrefix,
			S3:     S3Config{Region: defaultS3Region},
		},
		Images: ImageConfig{
			MaxWidth:            defaultMaxWidth,
			Quality:             defaultQuality,
			CompressThresholdKB: defaultCompressKB,
			MaxUploadMB:         defaultMaxUploadMB,
		},
		Events: EventsConfig{Channel: "folio:events"},
		Paths:  RuntimePathsConfig{LogRetentionDays: defaultLogRetention},
	}
}

func (c *AppConfig) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d, expected 1-65535", c.Server.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required when storage.driver is s3")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q, expected local or s3", c.Storage.Driver)
	}
	if c.Images.Quality <= 0 || c.Images.Quality > 1 {
		return fmt.Errorf("invalid images.quality %v, expected (0, 1]", c.Images.Quality)
	}
	if c.Images.MaxWidth < 1 {
		return fmt.Errorf("invalid images.max_width %d, expected > 0", c.Images.MaxWidth)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Server.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	return c.resolvePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) StaticDir() string {
	return c.resolvePath(c.Paths.Static, defaultStaticDir)
}

// CompressThresholdBytes is the size under which images are stored untouched.
func (c ImageConfig) CompressThresholdBytes() int {
	return c.CompressThresholdKB * 1024
}

func (c ImageConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// UsePathStyle reports whether S3 requests should use path-style addressing.
// It defaults to true whenever a custom endpoint is configured.
func (c S3Config) UsePathStyle() bool {
	if c.PathStyle != nil {
		return *c.PathStyle
	}
	return c.Endpoint != ""
}
