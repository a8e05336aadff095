package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Parse reads environment variables into the struct pointed to by v, using
// the env and envDefault tags of its fields.
//
// The first call in a process applies a .env file from the working
// directory when one exists. Variables already present in the environment
// win over the file. Every call reads the environment again, so settings
// changed between calls are picked up.
//
// Parse returns ErrNilPointer for a nil v and wraps env errors (missing
// required variables, malformed values) in ErrParsingConfig.
func Parse[T any](v *T) error {
	loadDefaultEnv()
	if v == nil {
		return ErrNilPointer
	}
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// LoadFiles applies the given .env files to the process environment.
// Variables that are already set are left untouched. Calling it without
// files does nothing.
func LoadFiles(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

func loadDefaultEnv() {
	defaultEnvLoaded.Do(func() {
		// the .env file is optional
		_ = godotenv.Load()
	})
}
