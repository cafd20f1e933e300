// Package logger holds the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger. It writes info and above to stderr until
// Init is called.
var Logger = newLogger(logrus.InfoLevel, os.Stderr)

// logFile is the file opened by the last Init, if any.
var logFile *os.File

type LogConfig struct {
	Level string
	// File, when set, receives a copy of everything written to stderr.
	File string
}

// Formatter prints "[time] [LEVL] message key=value ...".
type Formatter struct {
	TimestampFormat string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", entry.Time.Format(f.TimestampFormat), level, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func sortedKeys(fields logrus.Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&Formatter{TimestampFormat: "15:04:05.000"})
	l.SetLevel(level)
	l.SetOutput(out)
	return l
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Init replaces the global logger according to config and closes the log
// file of the logger it replaces.
func Init(config LogConfig) error {
	var (
		out io.Writer = os.Stderr
		f   *os.File
	)
	if config.File != "" {
		var err error
		f, err = openLogFile(config.File)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	Logger = newLogger(ParseLevel(config.Level), out)
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
