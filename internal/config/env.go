package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "call-transcriber/internal/app/errors"
)

// DefaultEnvFiles are tried in order; the first one found is loaded.
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnv loads the first existing env file into the process environment and
// returns its path, or "" when none exists. Variables already set in the
// environment are not overridden.
func LoadEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = DefaultEnvFiles
	}
	for _, envPath := range paths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return "", fmt.Errorf("error loading %s file: %w", envPath, err)
		}
		return envPath, nil
	}
	return "", nil
}

// ApplyEnv overrides every field tagged with `env` whose variable is present
// in environ with a non-empty value. Values are trimmed before parsing.
func (s *Settings) ApplyEnv(environ map[string]string) error {
	trimmed := make(map[string]string, len(environ))
	for key, value := range environ {
		if value = strings.TrimSpace(value); value != "" {
			trimmed[key] = value
		}
	}

	if err := env.ParseWithOptions(s, env.Options{Environment: trimmed}); err != nil {
		return apperrors.Mark(describeEnvError(err, trimmed), apperrors.ErrInvalidConfig)
	}
	return nil
}

// describeEnvError rewrites parse failures in terms of the variable an
// operator would set instead of the Go field name.
func describeEnvError(err error, environ map[string]string) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return err
	}
	settingsType := reflect.TypeOf(Settings{})
	msgs := make([]string, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if !errors.As(e, &pe) {
			msgs = append(msgs, e.Error())
			continue
		}
		key := pe.Name
		if f, ok := settingsType.FieldByName(pe.Name); ok {
			key = f.Tag.Get("env")
		}
		msgs = append(msgs, fmt.Sprintf("%s=%q: %v", key, environ[key], pe.Err))
	}
	return errors.New(strings.Join(msgs, "; "))
}
