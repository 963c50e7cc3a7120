package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// LevelHandler provides per-component log level filtering
type LevelHandler struct {
	handler         slog.Handler
	component       string
	defaultLevel    slog.Level
	componentLevels map[string]slog.Level
	mu              sync.RWMutex
}

// NewLevelHandler creates a new level handler with per-component filtering
func NewLevelHandler(handler slog.Handler, defaultLevel slog.Level) *LevelHandler {
	return &LevelHandler{
		handler:         handler,
		defaultLevel:    defaultLevel,
		componentLevels: make(map[string]slog.Level),
	}
}

// Handle implements slog.Handler
func (lh *LevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < lh.getLevelForComponent(lh.extractComponent(ctx, record)) {
		return nil
	}
	return lh.handler.Handle(ctx, record)
}

// WithAttrs implements slog.Handler. A component attribute added through
// logger.With is remembered so Enabled can filter before a record exists.
func (lh *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := lh.component
	for _, attr := range attrs {
		if attr.Key == "component" {
			component = attr.Value.String()
		}
	}
	return &LevelHandler{
		handler:         lh.handler.WithAttrs(attrs),
		component:       component,
		defaultLevel:    lh.GetDefaultLevel(),
		componentLevels: lh.copyComponentLevels(),
	}
}

// WithGroup implements slog.Handler
func (lh *LevelHandler) WithGroup(name string) slog.Handler {
	return &LevelHandler{
		handler:         lh.handler.WithGroup(name),
		component:       lh.component,
		defaultLevel:    lh.GetDefaultLevel(),
		componentLevels: lh.copyComponentLevels(),
	}
}

// Enabled implements slog.Handler
func (lh *LevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < lh.getLevelForComponent(lh.extractComponent(ctx, slog.Record{})) {
		return false
	}
	return lh.handler.Enabled(ctx, level)
}

func (lh *LevelHandler) extractComponent(ctx context.Context, record slog.Record) string {
	if component := GetComponent(ctx); component != "" {
		return component
	}

	var componentName string
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "component" {
			componentName = attr.Value.String()
			return false
		}
		return true
	})
	if componentName != "" {
		return componentName
	}

	if lh.component != "" {
		return lh.component
	}
	return "default"
}

func (lh *LevelHandler) getLevelForComponent(component string) slog.Level {
	lh.mu.RLock()
	defer lh.mu.RUnlock()

	if level, exists := lh.componentLevels[component]; exists {
		return level
	}

	// Simple prefix patterns such as "store*"
	for pattern, level := range lh.componentLevels {
		if strings.HasSuffix(pattern, "*") && strings.HasPrefix(component, strings.TrimSuffix(pattern, "*")) {
			return level
		}
	}

	return lh.defaultLevel
}

// SetComponentLevel sets the log level for a specific component
func (lh *LevelHandler) SetComponentLevel(component string, level slog.Level) {
	lh.mu.Lock()
	defer lh.mu.Unlock()

	lh.componentLevels[component] = level
}

// RemoveComponentLevel removes the specific level for a component, reverting to default
func (lh *LevelHandler) RemoveComponentLevel(component string) {
	lh.mu.Lock()
	defer lh.mu.Unlock()

	delete(lh.componentLevels, component)
}

// GetComponentLevel returns the log level for a specific component
func (lh *LevelHandler) GetComponentLevel(component string) slog.Level {
	return lh.getLevelForComponent(component)
}

func (lh *LevelHandler) copyComponentLevels() map[string]slog.Level {
	lh.mu.RLock()
	defer lh.mu.RUnlock()

	levels := make(map[string]slog.Level, len(lh.componentLevels))
	for component, level := range lh.componentLevels {
		levels[component] = level
	}
	return levels
}

// SetDefaultLevel sets the default log level
func (lh *LevelHandler) SetDefaultLevel(level slog.Level) {
	lh.mu.Lock()
	defer lh.mu.Unlock()

	lh.defaultLevel = level
}

// GetDefaultLevel returns the default log level
func (lh *LevelHandler) GetDefaultLevel() slog.Level {
	lh.mu.RLock()
	defer lh.mu.RUnlock()

	return lh.defaultLevel
}
