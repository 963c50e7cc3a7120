package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		expectErr bool
		errMsg    string
	}{
		{
			name:   "default config",
			config: DefaultConfig(),
		},
		{
			name:   "development config",
			config: DevelopmentConfig(),
		},
		{
			name:   "upper case values are normalized",
			config: &Config{Level: "DEBUG", Format: "JSON", Output: "Stderr"},
		},
		{
			name:      "invalid level",
			config:    &Config{Level: "verbose", Format: LogFormatJSON, Output: LogOutputStderr},
			expectErr: true,
			errMsg:    "invalid log level",
		},
		{
			name: "invalid component level",
			config: &Config{
				Level:           LogLevelInfo,
				Format:          LogFormatJSON,
				Output:          LogOutputStderr,
				ComponentLevels: map[string]LogLevel{"store": "loud"},
			},
			expectErr: true,
			errMsg:    "component store",
		},
		{
			name:      "invalid format",
			config:    &Config{Level: LogLevelInfo, Format: "xml", Output: LogOutputStderr},
			expectErr: true,
			errMsg:    "invalid log format",
		},
		{
			name:      "file output without path",
			config:    &Config{Level: LogLevelInfo, Format: LogFormatJSON, Output: LogOutputFile},
			expectErr: true,
			errMsg:    "filePath required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFactory_GetLoggerCaches(t *testing.T) {
	factory, _, err := CreateTestFactory(nil)
	if err != nil {
		t.Fatalf("CreateTestFactory failed: %v", err)
	}

	a := factory.GetLogger("store")
	b := factory.GetLogger("store")
	if a != b {
		t.Error("expected the same logger for the same component")
	}
	if factory.GetLogger("service") == a {
		t.Error("expected distinct loggers for distinct components")
	}
}

func TestFactory_ComponentLevels(t *testing.T) {
	config := &Config{
		Level:           LogLevelInfo,
		Format:          LogFormatJSON,
		Output:          LogOutputStderr,
		ComponentLevels: map[string]LogLevel{"store": LogLevelError, "cmd*": LogLevelDebug},
	}
	factory, captured, err := CreateTestFactory(config)
	if err != nil {
		t.Fatalf("CreateTestFactory failed: %v", err)
	}

	factory.GetLogger("store").Info("hidden")
	factory.GetLogger("store").Error("shown")
	factory.GetLogger("cmd-server").Debug("debug shown")
	factory.GetLogger("service").Debug("debug hidden")
	factory.GetLogger("service").Info("info shown")

	captured.AssertLogCount(t, 3)
	captured.AssertNotLogged(t, "INFO", "hidden")
	captured.AssertLogged(t, "DEBUG", "debug shown")

	for _, entry := range captured.GetEntriesWithMessage("shown") {
		if entry.Component == "" {
			t.Errorf("entry %q missing component", entry.Message)
		}
	}
}

func TestFactory_UpdateLevel(t *testing.T) {
	factory, captured, err := CreateTestFactory(&Config{Level: LogLevelInfo, Format: LogFormatJSON, Output: LogOutputStderr})
	if err != nil {
		t.Fatalf("CreateTestFactory failed: %v", err)
	}

	factory.GetLogger("store").Debug("before")
	factory.UpdateLevel("store", LogLevelDebug)
	factory.GetLogger("store").Debug("after")

	captured.AssertNotLogged(t, "DEBUG", "before")
	captured.AssertLogged(t, "DEBUG", "after")
}

func TestFactory_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holon.log")
	factory, err := NewFactory(&Config{Level: LogLevelInfo, Format: LogFormatText, Output: LogOutputFile, FilePath: path})
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}

	factory.GetLogger("test").Info("written to file")
	if err := factory.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestGlobalLogger(t *testing.T) {
	captured := NewTestLogger()
	if err := InitializeWithWriter(DefaultConfig(), captured); err != nil {
		t.Fatalf("InitializeWithWriter failed: %v", err)
	}
	defer Shutdown()

	GetGlobalLogger("global").Info("via global")
	captured.AssertLogged(t, "INFO", "via global")

	UpdateGlobalLevel("store.sqlite", LogLevelDebug)
	levels := GlobalLevels()
	if levels["default"] != LogLevelInfo || levels["store.sqlite"] != LogLevelDebug {
		t.Errorf("unexpected levels %v", levels)
	}

	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if GlobalLevels() != nil {
		t.Error("expected no levels after shutdown")
	}
	if GetGlobalLogger("after") == nil {
		t.Error("expected a fallback logger after shutdown")
	}
}

func TestRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background(), "create_holon")

	if GetRequestID(ctx) == "" {
		t.Error("expected a generated request id")
	}
	if GetOperation(ctx) != "create_holon" {
		t.Errorf("unexpected operation %q", GetOperation(ctx))
	}
	if GetStartTime(ctx).IsZero() {
		t.Error("expected a start time")
	}

	existing := WithRequestID(context.Background(), "req-1")
	if GetRequestID(NewRequestContext(existing, "")) != "req-1" {
		t.Error("existing request id should be preserved")
	}

	if GetRequestID(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}

func TestWithContextAttrs(t *testing.T) {
	captured := NewTestLogger()
	ctx := WithOperation(WithRequestID(context.Background(), "req-42"), "get")

	WithContextAttrs(ctx, captured.GetLogger()).Info("hello")

	entries := captured.GetEntries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].RequestID != "req-42" || entries[0].Operation != "get" {
		t.Errorf("context attributes missing: %+v", entries[0])
	}
}

func TestOperationTimer(t *testing.T) {
	captured := NewTestLogger()
	logger := captured.GetLogger()

	timer := StartTimer(context.Background(), logger, "update")
	if GetRequestID(timer.Context()) == "" {
		t.Error("timer should attach a request id")
	}
	timer.End()
	captured.AssertLogged(t, "DEBUG", "Operation completed")

	StartTimer(context.Background(), logger, "delete").EndWithError(errors.New("conflict"))
	failed := captured.GetEntriesWithMessage("Operation failed")
	if len(failed) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(failed))
	}
	if failed[0].Error != "conflict" {
		t.Errorf("unexpected error attribute %q", failed[0].Error)
	}
}

func TestLevelHandler_Prefix(t *testing.T) {
	captured := NewTestLogger()
	handler := NewLevelHandler(captured.GetHandler(), slog.LevelWarn)
	handler.SetComponentLevel("store*", slog.LevelDebug)

	if handler.GetComponentLevel("store.sqlite") != slog.LevelDebug {
		t.Error("prefix pattern should match")
	}
	if handler.GetComponentLevel("service") != slog.LevelWarn {
		t.Error("unmatched component should use default")
	}

	handler.RemoveComponentLevel("store*")
	if handler.GetComponentLevel("store.sqlite") != slog.LevelWarn {
		t.Error("removed pattern should revert to default")
	}
}
