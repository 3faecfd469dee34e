package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	contextPkg "DetectionViewer/pkg/context"

	"golang.org/x/net/context"
	"gopkg.in/natefinch/lumberjack.v2"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const RequestIDKey = "request_id"

type Fields = logrus.Fields

type Options struct {
	Level    logrus.Level
	Suppress []string
	LogDir   string
}

func defaultOptions() Options {
	return Options{
		Level:  logrus.DebugLevel,
		LogDir: "./storage/logs",
	}
}

type Option func(*Options)

func WithLevel(level logrus.Level) Option {
	return func(o *Options) {
		o.Level = level
	}
}

// WithSuppress drops entries whose message contains any of the patterns.
// Only the logger built with this option is affected.
func WithSuppress(patterns ...string) Option {
	return func(o *Options) {
		o.Suppress = append(o.Suppress, patterns...)
	}
}

func WithLogDir(dir string) Option {
	return func(o *Options) {
		o.LogDir = dir
	}
}

func NewLogger(opts ...Option) *logrus.Logger {
	once.Do(func() {
		logger = build(opts...)
	})

	return logger
}

func build(opts ...Option) *logrus.Logger {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	l := logrus.New()
	l.SetLevel(options.Level)

	var f logrus.Formatter = &formatter.Formatter{
		NoColors:        false,
		TimestampFormat: "02 Jan 06 - 15:04",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
		},
	}
	if len(options.Suppress) > 0 {
		f = NewSuppressFormatter(f, options.Suppress...)
	}
	l.SetFormatter(f)

	writers := []io.Writer{os.Stderr}

	appEnv := os.Getenv("APP_ENV")
	if appEnv != "test" {
		fileWriter := &lumberjack.Logger{
			Filename:   path.Join(options.LogDir, fmt.Sprintf("viewer-%s.log", time.Now().Format("2006-01-02"))),
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		}
		writers = append(writers, fileWriter)
	}

	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(true)

	return l
}

func Debug(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	current().WithFields(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	current().WithFields(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	current().WithFields(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	current().WithFields(fields).Error(msg)
}

func ErrorWithTraceID(fields Fields, msg string) string {
	var traceID string
	if reqID, ok := fields[RequestIDKey].(string); ok && reqID != "" {
		traceID = reqID
	} else {
		id, err := uuid.NewRandom()
		if err != nil {
			Error(Fields{
				"error": err.Error(),
			}, "[log.ErrorWithTraceID] failed to generate trace ID")
			traceID = "unknown"
		} else {
			traceID = id.String()
		}
	}

	if fields == nil {
		fields = Fields{}
	}

	fields["trace_id"] = traceID
	current().WithFields(fields).Error(msg)

	return traceID
}

func WithRequestID(ctx context.Context) *logrus.Entry {
	requestID := "unknown"
	if ctx != nil {
		requestID = contextPkg.GetRequestID(ctx)
	}

	return current().WithField(RequestIDKey, requestID)
}

// current falls back to the logrus standard logger when NewLogger was never
// called, which is the case in most package tests.
func current() *logrus.Logger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
