package logger

import (
	"context"
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter routes go-plugin client logs (including lines a plugin
// executable writes to stderr) into the host logger.
type HCLogAdapter struct {
	logger *NavLogger
	name   string
	args   []interface{}
}

func NewHCLogAdapter(name string) hclog.Logger {
	return &HCLogAdapter{logger: Default(), name: name}
}

var slogLevels = map[hclog.Level]slog.Level{
	hclog.Trace: slog.LevelDebug,
	hclog.Debug: slog.LevelDebug,
	hclog.Info:  slog.LevelInfo,
	hclog.Warn:  slog.LevelWarn,
	hclog.Error: slog.LevelError,
}

func (h *HCLogAdapter) emit(level hclog.Level, msg string, args []interface{}) {
	lvl, ok := slogLevels[level]
	if !ok {
		return
	}
	attrs := make([]interface{}, 0, len(h.args)+len(args)+2)
	attrs = append(attrs, "plugin", h.name)
	attrs = append(attrs, h.args...)
	attrs = append(attrs, args...)
	h.logger.slogger.Log(context.Background(), lvl, msg, attrs...)
}

func (h *HCLogAdapter) enabled(level hclog.Level) bool {
	return h.logger.slogger.Enabled(context.Background(), slogLevels[level])
}

func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	h.emit(level, msg, args)
}

func (h *HCLogAdapter) Trace(msg string, args ...interface{}) { h.emit(hclog.Trace, msg, args) }
func (h *HCLogAdapter) Debug(msg string, args ...interface{}) { h.emit(hclog.Debug, msg, args) }
func (h *HCLogAdapter) Info(msg string, args ...interface{})  { h.emit(hclog.Info, msg, args) }
func (h *HCLogAdapter) Warn(msg string, args ...interface{})  { h.emit(hclog.Warn, msg, args) }
func (h *HCLogAdapter) Error(msg string, args ...interface{}) { h.emit(hclog.Error, msg, args) }

// Trace is folded into debug, so it is never reported as enabled.
func (h *HCLogAdapter) IsTrace() bool { return false }
func (h *HCLogAdapter) IsDebug() bool { return h.enabled(hclog.Debug) }
func (h *HCLogAdapter) IsInfo() bool  { return h.enabled(hclog.Info) }
func (h *HCLogAdapter) IsWarn() bool  { return h.enabled(hclog.Warn) }
func (h *HCLogAdapter) IsError() bool { return h.enabled(hclog.Error) }

func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.args
}

func (h *HCLogAdapter) derive(name string, extra []interface{}) *HCLogAdapter {
	args := make([]interface{}, 0, len(h.args)+len(extra))
	args = append(args, h.args...)
	return &HCLogAdapter{logger: h.logger, name: name, args: append(args, extra...)}
}

func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	return h.derive(h.name, args)
}

func (h *HCLogAdapter) Name() string {
	return h.name
}

func (h *HCLogAdapter) Named(name string) hclog.Logger {
	return h.derive(h.name+"."+name, nil)
}

func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return h.derive(name, nil)
}

// SetLevel is ignored; the level follows the host configuration.
func (h *HCLogAdapter) SetLevel(level hclog.Level) {}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	for _, l := range []hclog.Level{hclog.Debug, hclog.Info, hclog.Warn} {
		if h.enabled(l) {
			return l
		}
	}
	return hclog.Error
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return slog.NewLogLogger(h.logger.slogger.Handler(), slog.LevelInfo)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return h.StandardLogger(opts).Writer()
}
