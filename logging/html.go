package logging

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
)

// htmlFile renders log records as paragraphs of an HTML document.
type htmlFile struct {
	path  string
	start time.Time
	tmpl  *template.Template
	out   *AsyncFile
}

type htmlHeader struct {
	Title string
}

type htmlLine struct {
	Class   string
	Label   string
	Elapsed string
	Prefix  string
	Message string
	Attrs   string
}

type htmlFooter struct {
	Elapsed string
	Dropped uint64
}

// openHTMLFile replaces any previous log at path and writes the document header.
func openHTMLFile(path string, start time.Time) (*htmlFile, error) {
	tmpl, err := GetHTMLTemplate(HTMLLogTemplate)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to delete old log file %s: %w", path, err)
	}

	out, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}

	f := &htmlFile{path: path, start: start, tmpl: tmpl, out: out}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "header", htmlHeader{Title: filepath.Base(path)}); err != nil {
		_ = out.Close(nil)
		return nil, fmt.Errorf("failed to render log header: %w", err)
	}
	if err := out.Write(buf.Bytes()); err != nil {
		_ = out.Close(nil)
		return nil, err
	}
	return f, nil
}

func (f *htmlFile) write(t time.Time, lvl slog.Level, prefix, msg string, attrs []slog.Attr) error {
	label, class := tag(lvl)
	line := htmlLine{
		Class:   class,
		Label:   label,
		Elapsed: f.elapsed(t),
		Prefix:  prefix,
		Message: stripansi.Strip(msg),
		Attrs:   stripansi.Strip(formatAttrs(attrs)),
	}

	var buf bytes.Buffer
	if err := f.tmpl.ExecuteTemplate(&buf, "line", line); err != nil {
		return fmt.Errorf("failed to render log line: %w", err)
	}
	return f.out.Write(buf.Bytes())
}

func (f *htmlFile) close(t time.Time) error {
	var buf bytes.Buffer
	footer := htmlFooter{Elapsed: f.elapsed(t), Dropped: f.out.Dropped()}
	if err := f.tmpl.ExecuteTemplate(&buf, "footer", footer); err != nil {
		_ = f.out.Close(nil)
		return fmt.Errorf("failed to render log footer: %w", err)
	}
	return f.out.Close(buf.Bytes())
}

func (f *htmlFile) elapsed(t time.Time) string {
	return fmt.Sprintf("%.2f", t.Sub(f.start).Seconds())
}

func formatAttrs(attrs []slog.Attr) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Key, a.Value.Resolve().Any()))
	}
	return strings.Join(parts, " ")
}
