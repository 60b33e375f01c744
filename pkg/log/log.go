package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = logrus.New()
	once   sync.Once
)

type (
	Fields = logrus.Fields
	Entry  = logrus.Entry
)

// Options controls logger construction. An empty FilePath logs to stderr only.
type Options struct {
	Level    string
	FilePath string
	NoColors bool
}

// NewLogger configures the package logger once and returns it.
func NewLogger(opts Options) *logrus.Logger {
	once.Do(func() {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        opts.NoColors,
			TimestampFormat: "15:04:05.000",
			HideKeys:        false,
			FieldsOrder:     []string{"component", "maneuver_id"},
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if opts.FilePath != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.FilePath,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    50,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(level >= logrus.DebugLevel)
	})

	return logger
}

// Logger returns the package logger, configured or not.
func Logger() *logrus.Logger {
	return logger
}

// SetOutput redirects the package logger; tests use it to capture or mute output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Component returns an entry tagged with the emitting subsystem.
func Component(name string) *logrus.Entry {
	return logger.WithField("component", name)
}

func Debug(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Error(msg)
}
