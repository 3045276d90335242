// Package log writes structured logs to a daily file under the logs directory.
// Nothing is written unless logs.write is set.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/where"
)

var enabled bool

var discard = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// Setup opens today's log file and applies the configured format and level.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	path := filepath.Join(where.Logs(), time.Now().Format("2006-01-02")+".log")
	f, err := filesystem.API().OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return nil
}

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields = logrus.Fields

// WithFields returns an entry carrying the given fields. Entries created while logging is disabled are discarded.
func WithFields(fields Fields) *logrus.Entry {
	return entry().WithFields(fields)
}

// Enabled reports whether logs reach the log file.
func Enabled() bool {
	return enabled
}

func entry() *logrus.Entry {
	if !enabled {
		return logrus.NewEntry(discard)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func Error(args ...any)                 { entry().Error(args...) }
func Errorf(format string, args ...any) { entry().Errorf(format, args...) }
func Warn(args ...any)                  { entry().Warn(args...) }
func Warnf(format string, args ...any)  { entry().Warnf(format, args...) }
func Info(args ...any)                  { entry().Info(args...) }
func Infof(format string, args ...any)  { entry().Infof(format, args...) }
func Debug(args ...any)                 { entry().Debug(args...) }
func Debugf(format string, args ...any) { entry().Debugf(format, args...) }
func Tracef(format string, args ...any) { entry().Tracef(format, args...) }
