// Package logger provides the component logger used across the bridge.
// Each component holds its own Logger tagged with a name and instance
// id; output goes to the console and a per-day log file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Logger struct {
	name string
	id   string
	out  *log.Logger
	err  *log.Logger
}

var (
	logFile     *os.File
	logFileOnce sync.Once
)

// openLogFile lazily opens the shared per-day log file. Failure to open
// falls back to console-only logging.
func openLogFile() *os.File {
	logFileOnce.Do(func() {
		if err := os.MkdirAll(logCfg.LogDir, 0o755); err != nil {
			return
		}
		name := fmt.Sprintf("agui-pipe-%s.log", time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(logCfg.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		logFile = f
	})
	return logFile
}

// NewLogger creates a logger for one component instance. All console
// output goes to stderr; stdout is reserved for the pipe transport's
// protocol output.
func NewLogger(name, id string) *Logger {
	outWriter := io.Writer(os.Stderr)
	errWriter := io.Writer(os.Stderr)
	if f := openLogFile(); f != nil {
		outWriter = io.MultiWriter(os.Stderr, f)
		errWriter = io.MultiWriter(os.Stderr, f)
	}
	tag := fmt.Sprintf("[%s %s] ", name, shortID(id))
	return &Logger{
		name: name,
		id:   id,
		out:  log.New(outWriter, tag, log.LstdFlags),
		err:  log.New(errWriter, tag+"ERROR: ", log.LstdFlags),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (l *Logger) Info(msg string)  { l.out.Println(msg) }
func (l *Logger) Warn(msg string)  { l.out.Println("WARN: " + msg) }
func (l *Logger) Error(msg string) { l.err.Println(msg) }

func (l *Logger) Debug(msg string) {
	if os.Getenv("AGUI_DEBUG") != "" {
		l.out.Println("DEBUG: " + msg)
	}
}
