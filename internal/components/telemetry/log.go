package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mazen160/go-random"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogOptions struct {
	Verbose bool
	// File is the path of the rotating log file, an empty path disables file logging.
	File string
	// MaxSizeMB is the size at which the log file is rotated, defaults to 10.
	MaxSizeMB int
	// MaxBackups defaults to 5.
	MaxBackups int
}

// InitSlog sets the default slog logger to one that writes colored output to stderr and
// plain text lines to a rotating log file. The returned closer flushes and closes the file.
func InitSlog(opts LogOptions) (io.Closer, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	if opts.File == "" {
		slog.SetDefault(slog.New(console))
		return io.NopCloser(nil), nil
	}

	err := os.MkdirAll(filepath.Dir(opts.File), 0777)
	if err != nil {
		return nil, err
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	file := slog.NewTextHandler(rotating, &slog.HandlerOptions{Level: level})

	slog.SetDefault(slog.New(teeHandler{handlers: []slog.Handler{console, file}}))
	return rotating, nil
}

// NewRunId returns a short random id that is attached to every log line of a crawl run.
func NewRunId() string {
	id, err := random.String(8)
	if err != nil {
		return "norunid"
	}
	return id
}

// teeHandler duplicates every record to all of its handlers.
type teeHandler struct {
	handlers []slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		err := h.Handle(ctx, record.Clone())
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return teeHandler{handlers: handlers}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return teeHandler{handlers: handlers}
}
