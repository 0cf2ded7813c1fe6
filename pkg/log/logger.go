package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(LevelInfo, os.Stderr)
)

// SetProvider replaces the process-wide provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetProvider returns the process-wide provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a component logger of the process-wide provider.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// Setup installs a zerolog provider writing to w as the process-wide
// provider and routes library warnings through it. format is "json" or
// "console".
func Setup(level, format string, w io.Writer) (*ZerologProvider, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch format {
	case "", "json":
	case "console":
		w = NewConsoleWriter(w)
	default:
		return nil, fmt.Errorf("invalid log format: %q", format)
	}
	p := NewZerologProvider(lvl, w)
	p.RouteWarnings()
	SetProvider(p)
	return p, nil
}
