package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func mapEnv(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeConfig(t, `
storageType: "SQLite"
storagePath: "/var/data/holons.db"
logLevel: "DEBUG"
sqlite:
  walMode: true
validation:
  descriptionPolicy: "Required"
  strictBaseTypes: true
service:
  readConcurrency: 4
notifications:
  bufferSize: 16
`)

	cfg, err := LoadWithLookup(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, "/var/data/holons.db", cfg.StoragePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Sqlite.WALMode)
	assert.Equal(t, "required", cfg.Validation.DescriptionPolicy)
	assert.True(t, cfg.Validation.StrictBaseTypes)
	assert.Equal(t, 4, cfg.Service.ReadConcurrency)
	assert.Equal(t, 16, cfg.Notifications.BufferSize)
	assert.Len(t, cfg.ValidationOptions(), 2)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `logLevel: warn`)

	cfg, err := LoadWithLookup(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "optional", cfg.Validation.DescriptionPolicy)
	assert.Equal(t, DefaultReadConcurrency, cfg.Service.ReadConcurrency)
	assert.Equal(t, DefaultBufferSize, cfg.Notifications.BufferSize)
	assert.Len(t, cfg.ValidationOptions(), 1)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_file.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `[invalid yaml - unclosed bracket`)

	_, err := LoadWithLookup(path, noEnv)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:    "invalid log level",
			mutate:  func(s *Settings) { s.LogLevel = "trace" },
			wantErr: "logLevel must be one of [debug, info, warn, error], got 'trace'",
		},
		{
			name:    "invalid storage type",
			mutate:  func(s *Settings) { s.StorageType = "postgres" },
			wantErr: "storageType must be one of [memory, sqlite], got 'postgres'",
		},
		{
			name: "sqlite without path",
			mutate: func(s *Settings) {
				s.StorageType = "sqlite"
				s.StoragePath = "  "
			},
			wantErr: "storagePath cannot be empty when storageType is sqlite",
		},
		{
			name:    "invalid description policy",
			mutate:  func(s *Settings) { s.Validation.DescriptionPolicy = "sometimes" },
			wantErr: "validation.descriptionPolicy must be one of [optional, required], got 'sometimes'",
		},
		{
			name:    "negative read concurrency",
			mutate:  func(s *Settings) { s.Service.ReadConcurrency = -1 },
			wantErr: "service.readConcurrency cannot be negative, got -1",
		},
		{
			name:    "negative buffer size",
			mutate:  func(s *Settings) { s.Notifications.BufferSize = -3 },
			wantErr: "notifications.bufferSize cannot be negative, got -3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestValidate_ZeroValuesGetDefaults(t *testing.T) {
	s := &Settings{}
	require.NoError(t, s.Validate())

	assert.Equal(t, "", s.StorageType)
	assert.Equal(t, "optional", s.Validation.DescriptionPolicy)
	assert.Equal(t, DefaultReadConcurrency, s.Service.ReadConcurrency)
	assert.Equal(t, DefaultBufferSize, s.Notifications.BufferSize)
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	path := writeConfig(t, `
storageType: memory
logLevel: info
`)
	env := mapEnv(map[string]string{
		"HOLON_STORAGE_TYPE":             "sqlite",
		"HOLON_STORAGE_PATH":             "/tmp/holons.db",
		"HOLON_SQLITE_WAL_MODE":          "true",
		"HOLON_DESCRIPTION_POLICY":       "required",
		"HOLON_STRICT_BASE_TYPES":        "1",
		"HOLON_READ_CONCURRENCY":         "2",
		"HOLON_NOTIFICATION_BUFFER_SIZE": "5",
		"UNRELATED":                      "ignored",
	})

	cfg, err := LoadWithLookup(path, env)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, "/tmp/holons.db", cfg.StoragePath)
	assert.True(t, cfg.Sqlite.WALMode)
	assert.Equal(t, "required", cfg.Validation.DescriptionPolicy)
	assert.True(t, cfg.Validation.StrictBaseTypes)
	assert.Equal(t, 2, cfg.Service.ReadConcurrency)
	assert.Equal(t, 5, cfg.Notifications.BufferSize)
}

func TestApplyEnv_BadValues(t *testing.T) {
	s := Default()
	err := ApplyEnv(s, mapEnv(map[string]string{"HOLON_SQLITE_WAL_MODE": "maybe"}))
	assert.EqualError(t, err, "HOLON_SQLITE_WAL_MODE must be a boolean, got 'maybe'")

	err = ApplyEnv(s, mapEnv(map[string]string{"HOLON_READ_CONCURRENCY": "many"}))
	assert.EqualError(t, err, "HOLON_READ_CONCURRENCY must be an integer, got 'many'")
}

func TestFileLookup(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("HOLON_LOG_LEVEL=error\nHOLON_TEST_ONLY_VALUE=from-file\n"), 0644))

	lookup, err := FileLookup(envPath)
	require.NoError(t, err)

	v, ok := lookup("HOLON_TEST_ONLY_VALUE")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)

	t.Setenv("HOLON_TEST_ONLY_VALUE", "from-process")
	v, _ = lookup("HOLON_TEST_ONLY_VALUE")
	assert.Equal(t, "from-process", v)

	cfg, err := LoadWithLookup("", lookup)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)

	_, err = FileLookup(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
