// Package report persists finished digests under a dated output directory,
// one markdown report and one plain-text transcript per run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dailybrief/internal/pipeline"
)

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// SaveMarkdown writes the markdown digest and returns its path.
func (w *Writer) SaveMarkdown(out *pipeline.Output, category string) (string, error) {
	if out.Markdown == "" {
		return "", fmt.Errorf("no markdown to save")
	}
	return w.save(fmt.Sprintf("digest_%s_%s.md", slug(category), timestamp()), out.Markdown)
}

// SaveText writes the full plain-text transcript: the summary followed by
// every stage section that produced one.
func (w *Writer) SaveText(out *pipeline.Output, category string) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Daily Brief: %s\n", category))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))
	sb.WriteString(out.Summary)
	sb.WriteString("\n")

	for _, section := range []struct {
		title string
		body  string
	}{
		{"Analysis", out.Analysis},
		{"Fact Check", out.FactCheck},
		{"Trends", out.Trends},
	} {
		if section.body == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n--- %s ---\n\n%s\n", section.title, section.body))
	}

	if out.Quote != nil {
		sb.WriteString(fmt.Sprintf("\n--- Market Quote ---\n\n%s\n", out.Quote.Describe()))
	}

	return w.save(fmt.Sprintf("digest_%s_%s.txt", slug(category), timestamp()), sb.String())
}

func (w *Writer) save(name, content string) (string, error) {
	dir := filepath.Join(w.dir, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func timestamp() string {
	return time.Now().Format("150405")
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	if s == "" {
		return "general"
	}
	return s
}
