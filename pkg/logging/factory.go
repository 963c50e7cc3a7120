package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Factory creates and manages loggers for different components
type Factory struct {
	config  *Config
	loggers map[string]*slog.Logger
	mu      sync.RWMutex

	handler slog.Handler
	closer  io.Closer
}

// NewFactory creates a new logger factory
func NewFactory(config *Config) (*Factory, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	f := &Factory{
		config:  config,
		loggers: make(map[string]*slog.Logger),
	}

	writer, err := f.openWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize handler: %w", err)
	}
	f.handler = newHandler(writer, config)

	return f, nil
}

// NewFactoryWithWriter creates a factory that writes to w regardless of Output
func NewFactoryWithWriter(config *Config, w io.Writer) (*Factory, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	return &Factory{
		config:  config,
		loggers: make(map[string]*slog.Logger),
		handler: newHandler(w, config),
	}, nil
}

func (f *Factory) openWriter() (io.Writer, error) {
	switch f.config.Output {
	case LogOutputStdout:
		return os.Stdout, nil
	case LogOutputFile:
		file, err := os.OpenFile(f.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		f.closer = file
		return file, nil
	default:
		return os.Stderr, nil
	}
}

// newHandler builds the base handler. It admits everything at debug and
// leaves filtering to the per-component LevelHandler.
func newHandler(w io.Writer, config *Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: config.EnableCaller,
	}

	if config.Format == LogFormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// GetLogger returns a logger for a specific component
func (f *Factory) GetLogger(component string) *slog.Logger {
	f.mu.RLock()
	if logger, exists := f.loggers[component]; exists {
		f.mu.RUnlock()
		return logger
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double-check after acquiring write lock
	if logger, exists := f.loggers[component]; exists {
		return logger
	}

	levels := NewLevelHandler(f.handler, SlogLevel(f.config.Level))
	for name, level := range f.config.ComponentLevels {
		levels.SetComponentLevel(name, SlogLevel(level))
	}

	logger := slog.New(levels).With(slog.String("component", component))
	f.loggers[component] = logger
	return logger
}

// WithContext decorates logger with the request metadata carried by ctx
func (f *Factory) WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = f.GetLogger("default")
	}
	return WithContextAttrs(ctx, logger)
}

// WithContextAttrs adds request_id and operation from ctx, when present
func WithContextAttrs(ctx context.Context, logger *slog.Logger) *slog.Logger {
	var args []any
	if reqID := GetRequestID(ctx); reqID != "" {
		args = append(args, slog.String("request_id", reqID))
	}
	if operation := GetOperation(ctx); operation != "" {
		args = append(args, slog.String("operation", operation))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// UpdateLevel dynamically updates the log level for a component
func (f *Factory) UpdateLevel(component string, level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.config.ComponentLevels == nil {
		f.config.ComponentLevels = make(map[string]LogLevel)
	}
	f.config.ComponentLevels[component] = level

	// Remove cached logger to force recreation with new level
	delete(f.loggers, component)
}

// Close releases the log file, if one was opened
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	if err != nil {
		return fmt.Errorf("errors closing logger factory: %w", err)
	}
	return nil
}

var (
	globalFactory *Factory
	globalMu      sync.RWMutex
)

// Initialize sets up the global logger factory
func Initialize(config *Config) error {
	factory, err := NewFactory(config)
	if err != nil {
		return err
	}
	return setGlobal(factory)
}

// InitializeWithWriter sets up the global factory on an explicit writer
func InitializeWithWriter(config *Config, w io.Writer) error {
	factory, err := NewFactoryWithWriter(config, w)
	if err != nil {
		return err
	}
	return setGlobal(factory)
}

func setGlobal(factory *Factory) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalFactory != nil {
		if err := globalFactory.Close(); err != nil {
			return fmt.Errorf("failed to close existing factory: %w", err)
		}
	}
	globalFactory = factory
	return nil
}

// GetGlobalLogger returns a logger from the global factory
func GetGlobalLogger(component string) *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalFactory == nil {
		return slog.Default().With(slog.String("component", component))
	}

	return globalFactory.GetLogger(component)
}

// Shutdown gracefully shuts down the global logging factory
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalFactory == nil {
		return nil
	}

	err := globalFactory.Close()
	globalFactory = nil
	return err
}

// UpdateGlobalLevel dynamically updates the log level for a component
func UpdateGlobalLevel(component string, level LogLevel) {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalFactory == nil {
		return
	}

	globalFactory.UpdateLevel(component, level)
}

// Levels returns the default level under "default" plus every component override
func (f *Factory) Levels() map[string]LogLevel {
	f.mu.RLock()
	defer f.mu.RUnlock()

	levels := map[string]LogLevel{"default": f.config.Level}
	for component, level := range f.config.ComponentLevels {
		levels[component] = level
	}
	return levels
}

// GlobalLevels returns the levels of the global factory, nil before Initialize
func GlobalLevels() map[string]LogLevel {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalFactory == nil {
		return nil
	}
	return globalFactory.Levels()
}
