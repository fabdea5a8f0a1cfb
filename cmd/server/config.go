package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment once at
// startup.
type Config struct {
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	Auth        AuthConfig
	Persistence PersistenceConfig
	Storage     StorageConfig
}

// AuthConfig implements accounts.Config. SigningKey has no default on
// purpose: the process must not start without one.
type AuthConfig struct {
	SigningKey string        `env:"JWT_SIGNING_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	Issuer     string        `env:"TOKEN_ISSUER" envDefault:"go-accounts"`
	Audience   []string      `env:"TOKEN_AUDIENCE" envSeparator:","`
}

func (c AuthConfig) GetSigningKey() string             { return c.SigningKey }
func (c AuthConfig) GetTokenExpiration() time.Duration { return c.TokenTTL }
func (c AuthConfig) GetIssuer() string                 { return c.Issuer }
func (c AuthConfig) GetAudience() []string             { return c.Audience }

// PersistenceConfig feeds the persistence client.
type PersistenceConfig struct {
	Driver      string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN         string        `env:"DB_DSN" envDefault:"file:accounts.db?cache=shared&mode=rwc"`
	Debug       bool          `env:"DB_DEBUG"`
	PingTimeout time.Duration `env:"DB_PING_TIMEOUT" envDefault:"5s"`
}

func (p PersistenceConfig) GetDriver() string             { return p.Driver }
func (p PersistenceConfig) GetDSN() string                { return p.DSN }
func (p PersistenceConfig) GetDebug() bool                { return p.Debug }
func (p PersistenceConfig) GetPingTimeout() time.Duration { return p.PingTimeout }

// StorageConfig selects where profile pictures go: a local uploads dir or an
// S3 compatible bucket (MinIO works through BaseEndpoint).
type StorageConfig struct {
	Driver        string `env:"STORAGE_DRIVER" envDefault:"local"`
	UploadsDir    string `env:"STORAGE_UPLOADS_DIR" envDefault:"public/uploads"`
	UploadsPrefix string `env:"STORAGE_UPLOADS_PREFIX" envDefault:"/uploads"`

	S3Region        string `env:"S3_REGION"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3BaseEndpoint  string `env:"S3_BASE_ENDPOINT"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
