// Package config provides environment-based configuration.
//
// Maps environment variables to the Config struct via env struct tags and
// validates required fields and range bounds.
package config
