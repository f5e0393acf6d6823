package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/travelease/internal/flagx"
	"github.com/dmitrijs2005/travelease/internal/timex"
)

type fileS3Config struct {
	Endpoint      string         `json:"endpoint" yaml:"endpoint"`
	Region        string         `json:"region" yaml:"region"`
	Bucket        string         `json:"bucket" yaml:"bucket"`
	AccessKey     string         `json:"access_key" yaml:"access_key"`
	SecretKey     string         `json:"secret_key" yaml:"secret_key"`
	PublicBaseURL string         `json:"public_base_url" yaml:"public_base_url"`
	KeyPrefix     string         `json:"key_prefix" yaml:"key_prefix"`
	PresignTTL    timex.Duration `json:"presign_ttl" yaml:"presign_ttl"`
}

// fileConfig is the on-disk shape. Zero values leave the current setting
// untouched.
type fileConfig struct {
	BackendURL     string         `json:"backend_url" yaml:"backend_url"`
	IdentityURL    string         `json:"identity_url" yaml:"identity_url"`
	TokenURL       string         `json:"token_url" yaml:"token_url"`
	IdentityAPIKey string         `json:"identity_api_key" yaml:"identity_api_key"`
	UploadBackend  string         `json:"upload_backend" yaml:"upload_backend"`
	S3             fileS3Config   `json:"s3" yaml:"s3"`
	ImageHostURL   string         `json:"image_host_url" yaml:"image_host_url"`
	ImageHostKey   string         `json:"image_host_key" yaml:"image_host_key"`
	MaxAssetSize   int64          `json:"max_asset_size" yaml:"max_asset_size"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	DatabasePath   string         `json:"database_path" yaml:"database_path"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/-config, if any.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.BackendURL, fc.BackendURL)
	setString(&cfg.IdentityURL, fc.IdentityURL)
	setString(&cfg.TokenURL, fc.TokenURL)
	setString(&cfg.IdentityAPIKey, fc.IdentityAPIKey)
	setString(&cfg.UploadBackend, fc.UploadBackend)
	setString(&cfg.ImageHostURL, fc.ImageHostURL)
	setString(&cfg.ImageHostKey, fc.ImageHostKey)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.MaxAssetSize > 0 {
		cfg.MaxAssetSize = fc.MaxAssetSize
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}

	setString(&cfg.S3.Endpoint, fc.S3.Endpoint)
	setString(&cfg.S3.Region, fc.S3.Region)
	setString(&cfg.S3.Bucket, fc.S3.Bucket)
	setString(&cfg.S3.AccessKey, fc.S3.AccessKey)
	setString(&cfg.S3.SecretKey, fc.S3.SecretKey)
	setString(&cfg.S3.PublicBaseURL, fc.S3.PublicBaseURL)
	setString(&cfg.S3.KeyPrefix, fc.S3.KeyPrefix)
	if fc.S3.PresignTTL.Duration > 0 {
		cfg.S3.PresignTTL = fc.S3.PresignTTL.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
