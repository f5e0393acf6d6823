// Package config loads runtime configuration for the TravelEase CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file (see parseFile) selected with -c or -config.
//  3. Environment variables with the TRAVELEASE_ prefix (see parseEnv).
//  4. Command-line flags (see parseFlags), which override everything else.
//
// Supported flags
//
//	-b string     backend base URL
//	-u string     upload backend: imagehost or s3
//	-d string     path of the local session database
//	-l string     log level: debug, info, warn, error
//	-t duration   per-request timeout, e.g. 15s
//
// # File schema
//
// Durations use timex.Duration, so they may be strings like "15s" or integer
// nanoseconds. The file format is chosen by extension (.yaml/.yml or JSON):
//
//	backend_url: http://localhost:3000/
//	upload_backend: s3
//	request_timeout: 15s
//	s3:
//	  endpoint: http://localhost:9000
//	  bucket: covers
//	  presign_ttl: 15m
package config
