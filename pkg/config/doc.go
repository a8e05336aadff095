// Package config loads environment based settings for statechart
// processes.
//
// Settings are read from the process environment after an optional .env file
// has been applied. Struct fields are bound with caarlos0/env tags:
//
//	var cfg config.App
//	if err := config.Parse(&cfg); err != nil {
//		return err
//	}
//
// LoadFiles applies additional .env files before parsing.
package config
