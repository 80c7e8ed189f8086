// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct tag parsing and
// github.com/joho/godotenv for optional .env files. Each config type is parsed
// once and cached. Types implementing Validator are checked after parsing.
//
//	var cfg app.Config
//	config.MustLoad(&cfg)
//
// ResetCache and ForceReload exist for tests that mutate the environment.
package config
