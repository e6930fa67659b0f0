package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Environment variable to configure log file path.
const envLogPath = "TIBURONA_LOG"

var (
	mu      sync.Mutex
	std     *log.Logger
	logFile *os.File
)

// InitFromEnv initializes the logger using TIBURONA_LOG, or <name>.log next
// to the executable.
func InitFromEnv(name string) error {
	path := os.Getenv(envLogPath)
	if path == "" {
		path = DefaultPath(name)
	}
	return Init(path)
}

// DefaultPath returns <name>.log in the executable's directory, falling back
// to the working directory.
func DefaultPath(name string) string {
	if exePath, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exePath), name+".log")
	}
	return "./" + name + ".log"
}

// Init initializes the logger to write to the provided file path.
// It creates parent directories if needed and opens the file in append mode.
// Calling Init again after a successful Init is a no-op.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if std != nil {
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	logFile = f
	std = newLogger(f)
	return nil
}

// SetOutput replaces the destination, closing any file opened by Init.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	closeFile()
	std = newLogger(w)
}

// Close closes the underlying log file, if open. Later writes are dropped
// until the logger is initialized again.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFile()
	std = nil
	return err
}

// Infof logs informational messages.
func Infof(format string, args ...any) { write("INFO", format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write("WARN", format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write("ERROR", format, args...) }

func write(level string, format string, args ...any) {
	mu.Lock()
	l := std
	mu.Unlock()
	if l == nil {
		return
	}
	l.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

func closeFile() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
