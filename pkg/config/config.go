package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

const (
	DefaultReadConcurrency = 8
	DefaultBufferSize      = 64
)

type Settings struct {
	StorageType   string               `yaml:"storageType"`
	StoragePath   string               `yaml:"storagePath"`
	LogLevel      string               `yaml:"logLevel"`
	Sqlite        SqliteSettings       `yaml:"sqlite"`
	Validation    ValidationSettings   `yaml:"validation"`
	Service       ServiceSettings      `yaml:"service"`
	Notifications NotificationSettings `yaml:"notifications"`
}

type SqliteSettings struct {
	WALMode bool `yaml:"walMode"`
}

// ValidationSettings select the descriptor validation rules used by every write
type ValidationSettings struct {
	DescriptionPolicy string `yaml:"descriptionPolicy"`
	StrictBaseTypes   bool   `yaml:"strictBaseTypes"`
}

type ServiceSettings struct {
	ReadConcurrency int `yaml:"readConcurrency"`
}

type NotificationSettings struct {
	BufferSize int `yaml:"bufferSize"`
}

// Default returns in-memory settings with optional descriptions
func Default() *Settings {
	return &Settings{
		StorageType: "memory",
		LogLevel:    "info",
		Validation: ValidationSettings{
			DescriptionPolicy: "optional",
		},
		Service: ServiceSettings{
			ReadConcurrency: DefaultReadConcurrency,
		},
		Notifications: NotificationSettings{
			BufferSize: DefaultBufferSize,
		},
	}
}

// Validate validates the configuration settings, normalizing case
func (s *Settings) Validate() error {
	// Empty log level is allowed and will use default
	if s.LogLevel != "" {
		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		normalizedLogLevel := strings.ToLower(s.LogLevel)
		if !validLogLevels[normalizedLogLevel] {
			return fmt.Errorf("logLevel must be one of [debug, info, warn, error], got '%s'", s.LogLevel)
		}
		s.LogLevel = normalizedLogLevel
	}

	validStorageTypes := map[string]bool{
		"memory": true,
		"sqlite": true,
		"":       true, // Empty defaults to memory
	}
	normalizedStorageType := strings.ToLower(s.StorageType)
	if !validStorageTypes[normalizedStorageType] {
		return fmt.Errorf("storageType must be one of [memory, sqlite], got '%s'", s.StorageType)
	}
	s.StorageType = normalizedStorageType

	if normalizedStorageType == "sqlite" && strings.TrimSpace(s.StoragePath) == "" {
		return fmt.Errorf("storagePath cannot be empty when storageType is sqlite")
	}

	policy, err := descriptor.ParseDescriptionPolicy(s.Validation.DescriptionPolicy)
	if err != nil {
		return fmt.Errorf("validation.descriptionPolicy must be one of [optional, required], got '%s'", s.Validation.DescriptionPolicy)
	}
	s.Validation.DescriptionPolicy = policy.String()

	if s.Service.ReadConcurrency < 0 {
		return fmt.Errorf("service.readConcurrency cannot be negative, got %d", s.Service.ReadConcurrency)
	}
	if s.Service.ReadConcurrency == 0 {
		s.Service.ReadConcurrency = DefaultReadConcurrency
	}

	if s.Notifications.BufferSize < 0 {
		return fmt.Errorf("notifications.bufferSize cannot be negative, got %d", s.Notifications.BufferSize)
	}
	if s.Notifications.BufferSize == 0 {
		s.Notifications.BufferSize = DefaultBufferSize
	}

	return nil
}

// ValidationOptions translates the validation settings for the descriptor package.
// Call it on validated settings.
func (s *Settings) ValidationOptions() []descriptor.Option {
	policy, _ := descriptor.ParseDescriptionPolicy(s.Validation.DescriptionPolicy)
	opts := []descriptor.Option{descriptor.WithDescriptionPolicy(policy)}
	if s.Validation.StrictBaseTypes {
		opts = append(opts, descriptor.WithStrictBaseTypes())
	}
	return opts
}

// Load reads YAML settings over the defaults, applies HOLON_* environment
// overrides and validates the result.
func Load(path string) (*Settings, error) {
	return LoadWithLookup(path, os.LookupEnv)
}

// LoadWithLookup is Load with an explicit environment source. An empty
// path starts from Default() alone.
func LoadWithLookup(path string, lookup LookupFunc) (*Settings, error) {
	settings := Default()

	if path != "" {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(bytes, settings); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(settings, lookup); err != nil {
		return nil, fmt.Errorf("environment override failed: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}
