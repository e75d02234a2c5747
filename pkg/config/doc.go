// Package config loads typed configuration structs from environment
// variables (with optional .env file support for local development).
// Each struct type is parsed once per process and cached, so independent
// components can load the same config without re-reading the environment.
package config
