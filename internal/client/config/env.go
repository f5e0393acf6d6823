package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix is prepended to every variable, e.g. TRAVELEASE_BACKEND_URL or
// TRAVELEASE_S3_BUCKET.
const EnvPrefix = "TRAVELEASE"

// parseEnv overlays cfg with variables that are set; unset ones keep the
// current value.
func parseEnv(cfg *Config) {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		panic(err)
	}
}
