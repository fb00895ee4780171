// Package obslog provides config-driven categorized logging for the
// JoshSim engine, built on go.uber.org/zap. Categories separate parser,
// compiler, scheduler, conversion, and exporter output the way the
// reference CLI separates boot/session/kernel logs, but backed by a
// single zap core instead of one file handle per category.
package obslog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names one subsystem's log stream.
type Category string

const (
	CategoryParse      Category = "parse"
	CategoryCompile    Category = "compile"
	CategoryScheduler  Category = "scheduler"
	CategoryConversion Category = "conversion"
	CategoryExporter   Category = "exporter"
)

// Config controls where and how much gets logged.
type Config struct {
	// Debug enables debug-level output; mirrors the reference logger's
	// debug_mode gate. When false, info and above surface.
	Debug bool
	// FilePath, when non-empty, tees JSON-encoded entries to this file
	// in addition to the human-readable stderr core.
	FilePath string
}

var (
	mu      sync.RWMutex
	base    *zap.Logger
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the root zap logger from cfg. Safe to call once at
// process startup; subsequent calls replace the root logger.
func Initialize(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(zapcore.AddSync(os.Stderr)), level),
	}

	if cfg.FilePath != "" {
		sink, _, err := zap.Open(cfg.FilePath)
		if err != nil {
			return fmt.Errorf("obslog: open log file %q: %w", cfg.FilePath, err)
		}
		jsonEnc := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(jsonEnc, sink, level))
	}

	mu.Lock()
	base = zap.New(zapcore.NewTee(cores...))
	loggers = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()
	return nil
}

// Get returns the sugared logger for category, lazily building and
// caching it against the current root logger.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	root := base
	if root == nil {
		root = zap.NewNop()
	}
	l := root.Sugar().With("category", string(category))
	loggers[category] = l
	return l
}

// Sync flushes every cached logger; call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	for _, l := range loggers {
		_ = l.Sync()
	}
}

// Timer measures and logs the duration of one phase (parse, compile,
// one scheduler step) against a category.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing op under category.
func StartTimer(category Category, op string) *Timer {
	return &Timer{category: category, op: op, start: time.Now()}
}

// Stop logs the elapsed duration at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugf("%s completed in %s", t.op, elapsed)
	return elapsed
}

// StopWithInfo logs the elapsed duration at info level and returns it.
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Infof("%s completed in %s", t.op, elapsed)
	return elapsed
}
