// Package logging implements the leveled log sink of the harness. Records go
// to the console handler and, when enabled, to an HTML log file. Records of
// test-scoped loggers carry the "<case:step>" prefix of the running test.
package logging

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Prefixer supplies the prefix of test-scoped log records.
type Prefixer interface {
	// LogPrefix returns the current "<case:step>" tag, or "" when there is none.
	LogPrefix() string
}

// Config holds the sink configuration
type Config struct {
	Level      Level
	DumpToFile bool
	Path       string       // HTML log file, required when DumpToFile is set
	Console    slog.Handler // nil discards console output
	Start      time.Time    // origin of the elapsed-time tag, defaults to now
}

// Sink fans leveled records out to the console and the HTML file.
type Sink struct {
	level   Level
	console slog.Handler
	file    *htmlFile
	start   time.Time

	bindOnce sync.Once
	prefixer Prefixer
	mu       sync.RWMutex
	closed   bool
}

// NewSink creates a sink. When DumpToFile is set any previous file at Path is deleted.
func NewSink(cfg Config) (*Sink, error) {
	if cfg.Console == nil {
		cfg.Console = log.DiscardHandler()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}

	s := &Sink{
		level:   cfg.Level,
		console: cfg.Console,
		start:   cfg.Start,
	}

	if cfg.DumpToFile {
		if cfg.Path == "" {
			return nil, errors.New("log path is required when dumping logs to file")
		}
		f, err := openHTMLFile(cfg.Path, cfg.Start)
		if err != nil {
			return nil, err
		}
		s.file = f
	}
	return s, nil
}

// Bind sets the prefixer of test-scoped records. Only the first call takes
// effect; it reports whether p was bound.
func (s *Sink) Bind(p Prefixer) bool {
	bound := false
	s.bindOnce.Do(func() {
		s.mu.Lock()
		s.prefixer = p
		s.mu.Unlock()
		bound = true
	})
	return bound
}

// Level returns the configured verbosity.
func (s *Sink) Level() Level {
	return s.level
}

// FileActive reports whether records are also written to the HTML file.
func (s *Sink) FileActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file != nil && !s.closed
}

// Handler returns the slog handler for framework records.
func (s *Sink) Handler() slog.Handler {
	return &handler{sink: s, console: s.console}
}

// Logger returns a logger for framework records.
func (s *Sink) Logger() log.Logger {
	return log.NewLogger(s.Handler())
}

// TestLogger returns a logger whose records carry the running test's prefix.
func (s *Sink) TestLogger() log.Logger {
	return log.NewLogger(&handler{sink: s, console: s.console, scoped: true})
}

// Close writes the HTML footer and closes the file. Further records only reach the console.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed || s.file == nil {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	f := s.file
	s.mu.Unlock()
	return f.close(time.Now())
}

func (s *Sink) prefix() string {
	s.mu.RLock()
	p := s.prefixer
	s.mu.RUnlock()
	if p == nil {
		return ""
	}
	return p.LogPrefix()
}

// handler is the slog.Handler behind Sink loggers.
type handler struct {
	sink    *Sink
	console slog.Handler
	scoped  bool
	attrs   []slog.Attr
	group   string
}

func (h *handler) Enabled(_ context.Context, lvl slog.Level) bool {
	return h.sink.level.Allows(lvl)
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if !h.sink.level.Allows(r.Level) {
		return nil
	}

	var prefix string
	if h.scoped {
		prefix = h.sink.prefix()
	}

	msg := r.Message
	if prefix != "" {
		msg = prefix + " " + msg
	}
	out := slog.NewRecord(r.Time, r.Level, msg, r.PC)
	attrs := make([]slog.Attr, 0, r.NumAttrs()+1)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		attrs = append(attrs, h.qualify(a))
		return true
	})
	if r.Level >= log.LevelError && h.sink.level >= LevelDebug {
		stack := slog.String("callstack", string(debug.Stack()))
		out.AddAttrs(stack)
		attrs = append(attrs, stack)
	}

	var errs []error
	if h.console.Enabled(ctx, r.Level) {
		if err := h.console.Handle(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}

	h.sink.mu.RLock()
	f, closed := h.sink.file, h.sink.closed
	h.sink.mu.RUnlock()
	if f != nil && !closed {
		all := append(append([]slog.Attr{}, h.attrs...), attrs...)
		if err := f.write(r.Time, r.Level, prefix, r.Message, all); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	qualified := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	qualified = append(qualified, h.attrs...)
	for _, a := range attrs {
		qualified = append(qualified, h.qualify(a))
	}
	return &handler{
		sink:    h.sink,
		console: h.console.WithAttrs(attrs),
		scoped:  h.scoped,
		attrs:   qualified,
		group:   h.group,
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &handler{
		sink:    h.sink,
		console: h.console.WithGroup(name),
		scoped:  h.scoped,
		attrs:   h.attrs,
		group:   group,
	}
}

func (h *handler) qualify(a slog.Attr) slog.Attr {
	if h.group == "" {
		return a
	}
	return slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
}
