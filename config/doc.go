// Package config loads dashboard settings.
//
// Sources, lowest precedence first: built-in defaults, an optional file
// (YAML, JSON or TOML, read with viper), GYM_* environment variables.
// String values then pass through the secret resolver, so a password can be
// written as secretref:env:NAME or secretref:file:/run/secrets/name.
package config
