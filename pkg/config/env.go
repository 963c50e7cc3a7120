package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "HOLON_"

// LookupFunc resolves an environment variable, like os.LookupEnv
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// FileLookup returns a LookupFunc that prefers the process environment and
// falls back to the values in a .env file.
func FileLookup(path string) (LookupFunc, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// ApplyEnv overwrites settings with any HOLON_* variables lookup returns
func ApplyEnv(s *Settings, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}

	strs := map[string]*string{
		"STORAGE_TYPE":       &s.StorageType,
		"STORAGE_PATH":       &s.StoragePath,
		"LOG_LEVEL":          &s.LogLevel,
		"DESCRIPTION_POLICY": &s.Validation.DescriptionPolicy,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"SQLITE_WAL_MODE":   &s.Sqlite.WALMode,
		"STRICT_BASE_TYPES": &s.Validation.StrictBaseTypes,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s must be a boolean, got '%s'", EnvPrefix, key, v)
			}
			*dst = parsed
		}
	}

	ints := map[string]*int{
		"READ_CONCURRENCY":         &s.Service.ReadConcurrency,
		"NOTIFICATION_BUFFER_SIZE": &s.Notifications.BufferSize,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s must be an integer, got '%s'", EnvPrefix, key, v)
			}
			*dst = parsed
		}
	}

	return nil
}
