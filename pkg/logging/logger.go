package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides structured debug logging for surfer components.
// All components of one process write JSON lines to a single
// session-specific file in ~/.surfer/logs/, rotated by size.
type Logger struct {
	sessionID string
	component string
	logPath   string
	zl        *zap.Logger
	sugar     *zap.SugaredLogger
	closeOnce sync.Once
}

// LogDirEnv overrides the log directory when set.
const LogDirEnv = "SURFER_LOG_DIR"

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	// coreOnce guards construction of the shared file core
	coreOnce sync.Once
	core     zapcore.Core
	sink     *lumberjack.Logger
	corePath string

	// level is shared by every component logger
	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			logDir = os.Getenv(LogDirEnv)
		}
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".surfer", "logs")
		}

		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// sharedCore builds the JSON file core once per session.
func sharedCore() (zapcore.Core, string) {
	coreOnce.Do(func() {
		corePath = filepath.Join(logDir, fmt.Sprintf("%s-surfer.log", getSessionID()))
		sink = &lumberjack.Logger{
			Filename:   corePath,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(sink), level)
	})
	return core, corePath
}

// NewLogger creates a new logger for a specific component.
// The logger writes to ~/.surfer/logs/<session-id>-surfer.log
//
// If the log directory cannot be created, it returns a fallback logger
// that writes to stderr along with the error. Callers can check the error
// to detect fallback mode and log warnings.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	c, path := sharedCore()

	// Touch the file so LogPath is valid before the first write.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}
	_ = f.Close()

	zl := zap.New(c).Named(component).With(zap.String("session_id", getSessionID()))
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logPath:   path,
		zl:        zl,
		sugar:     zl.Sugar(),
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	c := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level)
	zl := zap.New(c).Named(component)
	zl.Warn("failed to initialize file logging, falling back to stderr", zap.Error(err))

	return &Logger{
		sessionID: getSessionID(),
		component: component,
		zl:        zl,
		sugar:     zl.Sugar(),
	}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	zl := zap.NewNop()
	return &Logger{component: "nop", zl: zl, sugar: zl.Sugar()}
}

// SetLevel changes the minimum level of every component logger.
// Unknown level names leave the level unchanged and return an error.
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}

// Printf logs a formatted message at info level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Zap exposes the structured logger for callers that want typed fields.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Writer returns an io.Writer that writes to the shared log file
func (l *Logger) Writer() io.Writer {
	if sink != nil && l.logPath != "" {
		return sink
	}
	return os.Stderr
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes buffered entries. Safe to call multiple times.
// The shared file stays open for other components; see Shutdown.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		_ = l.zl.Sync()
	})
	return nil
}

// Shutdown closes the shared log file. Call once at process exit.
func Shutdown() error {
	if sink == nil {
		return nil
	}
	return sink.Close()
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
