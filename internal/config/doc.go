// Package config defines the keeper settings and provides helpers to load,
// validate and save them in YAML format.
//
// Every field has a default, so the keeper runs without a settings file.
package config
