package logger

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

var navLogger atomic.Pointer[NavLogger]

func init() {
	navLogger.Store(NewNavLogger())
}

// NavLogger wraps slog and adapts it to the logger interfaces expected by
// badger and nxadm/tail.
type NavLogger struct {
	slogger *slog.Logger
}

func NewNavLogger() *NavLogger {
	return &NavLogger{
		slogger: slog.Default(),
	}
}

func Default() *NavLogger {
	return navLogger.Load()
}

func setDefault(l *slog.Logger) {
	navLogger.Store(&NavLogger{slogger: l})
}

func SetLogLevel(level slog.Level) {
	slog.SetLogLoggerLevel(level)
}

// slog wrapper

func Debug(msg string, args ...any) {
	navLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	navLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	navLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	navLogger.Load().Error(msg, args...)
}

func (l *NavLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *NavLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *NavLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *NavLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// badger.Logger

func (l *NavLogger) Errorf(format string, args ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, args...))
}

func (l *NavLogger) Warningf(format string, args ...interface{}) {
	l.slogger.Warn(fmt.Sprintf(format, args...))
}

func (l *NavLogger) Infof(format string, args ...interface{}) {
	l.slogger.Info(fmt.Sprintf(format, args...))
}

func (l *NavLogger) Debugf(format string, args ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, args...))
}

// tail logger; tail calls these on unrecoverable watcher errors, which are
// logged instead of terminating the host.

func (l *NavLogger) Fatal(v ...interface{}) {
	l.slogger.Error("tail failure", genericPairs(v...)...)
}

func (l *NavLogger) Fatalf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *NavLogger) Fatalln(v ...interface{}) {
	l.slogger.Error(fmt.Sprint(v...))
}

func (l *NavLogger) Panic(v ...interface{}) {
	l.slogger.Error("tail failure", genericPairs(v...)...)
}

func (l *NavLogger) Panicf(format string, v ...interface{}) {
	l.slogger.Error(fmt.Sprintf(format, v...))
}

func (l *NavLogger) Panicln(v ...interface{}) {
	l.slogger.Error(fmt.Sprint(v...))
}

func (l *NavLogger) Print(v ...interface{}) {
	l.slogger.Debug(fmt.Sprint(v...))
}

func (l *NavLogger) Printf(format string, v ...interface{}) {
	l.slogger.Debug(fmt.Sprintf(format, v...))
}

func (l *NavLogger) Println(v ...interface{}) {
	l.slogger.Debug(fmt.Sprint(v...))
}

func genericPairs(v ...interface{}) []any {
	pairs := make([]any, 0, len(v)/2)
	for i := 0; i < len(v)-1; i += 2 {
		key, ok := v[i].(string)
		if !ok {
			key = fmt.Sprintf("non_string_key_%d", i)
		}
		pairs = append(pairs, slog.Any(key, v[i+1]))
	}
	return pairs
}
