package config

import (
	"os"
	"path/filepath"
	"time"
)

// S3Config addresses the bucket used when UploadBackend is "s3".
type S3Config struct {
	Endpoint      string        `envconfig:"ENDPOINT"`
	Region        string        `envconfig:"REGION"`
	Bucket        string        `envconfig:"BUCKET"`
	AccessKey     string        `envconfig:"ACCESS_KEY"`
	SecretKey     string        `envconfig:"SECRET_KEY"`
	PublicBaseURL string        `envconfig:"PUBLIC_BASE_URL"`
	KeyPrefix     string        `envconfig:"KEY_PREFIX"`
	PresignTTL    time.Duration `envconfig:"PRESIGN_TTL"`
}

// Config holds runtime settings for the TravelEase CLI.
type Config struct {
	BackendURL     string        `envconfig:"BACKEND_URL"`
	IdentityURL    string        `envconfig:"IDENTITY_URL"`
	TokenURL       string        `envconfig:"TOKEN_URL"`
	IdentityAPIKey string        `envconfig:"IDENTITY_API_KEY"`
	UploadBackend  string        `envconfig:"UPLOAD_BACKEND"`
	S3             S3Config      `envconfig:"S3"`
	ImageHostURL   string        `envconfig:"IMAGE_HOST_URL"`
	ImageHostKey   string        `envconfig:"IMAGE_HOST_KEY"`
	MaxAssetSize   int64         `envconfig:"MAX_ASSET_SIZE"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
	DatabasePath   string        `envconfig:"DATABASE_PATH"`
	LogLevel       string        `envconfig:"LOG_LEVEL"`
}

// LoadDefaults populates c with defaults suitable for a local backend.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://localhost:3000/"
	c.IdentityURL = "https://identitytoolkit.googleapis.com/v1/"
	c.TokenURL = "https://securetoken.googleapis.com/v1/token"
	c.UploadBackend = "imagehost"
	c.ImageHostURL = "https://api.imgbb.com/1/upload"
	c.S3 = S3Config{Region: "us-east-1", PresignTTL: 15 * time.Minute}
	c.MaxAssetSize = 5 << 20
	c.RequestTimeout = 15 * time.Second
	c.DatabasePath = defaultDatabasePath()
	c.LogLevel = "warn"
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "travelease.db"
	}
	return filepath.Join(dir, "travelease", "session.db")
}

// LoadConfig applies defaults, then the config file, the environment and
// flags. Later sources take precedence. Malformed input panics.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
