// Package report renders the collected records into a single
// self-contained HTML page.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"faunascraper/internal/fauna"
	"faunascraper/internal/process"
)

// Summary carries the run-level numbers shown in the report header.
type Summary struct {
	TotalAnimals    int
	TotalAdjectives int
	ImagesFetched   int
	ImagesFailed    int
	SourceURL       string
	GeneratedAt     time.Time
	Duration        time.Duration
}

// Config controls where and how the report is written.
type Config struct {
	OutputPath string
	Title      string
}

// Writer renders reports to disk.
type Writer struct {
	cfg    Config
	logger *zap.Logger
	tmpl   *template.Template
}

// New parses the report template once up front so a bad template fails the
// run early instead of after the downloads.
func New(cfg Config, logger *zap.Logger) (*Writer, error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = "report.html"
	}
	if cfg.Title == "" {
		cfg.Title = "Animals and their Collateral Adjectives"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Writer{cfg: cfg, logger: logger, tmpl: tmpl}, nil
}

type pageData struct {
	Title   string
	Summary Summary
	Groups  []entry
}

type entry struct {
	Animal     string
	PageTitle  string
	Adjectives []string
	ImagePath  string
}

// Write renders the groups and summary to the configured output path. Image
// paths are rewritten relative to the report so the page works when the
// output directory is moved as a unit.
func (w *Writer) Write(groups []process.Group, summary Summary) (string, error) {
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = time.Now().UTC()
	}
	summary.TotalAnimals = len(groups)
	summary.TotalAdjectives = 0

	reportDir := filepath.Dir(w.cfg.OutputPath)
	entries := make([]entry, 0, len(groups))
	for _, g := range groups {
		summary.TotalAdjectives += len(g.Adjectives)
		entries = append(entries, entry{
			Animal:     g.Animal,
			PageTitle:  g.PageTitle,
			Adjectives: g.Adjectives,
			ImagePath:  relativeImagePath(reportDir, g.LocalPath),
		})
	}

	data := pageData{Title: w.cfg.Title, Summary: summary, Groups: entries}

	if dir := filepath.Dir(w.cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(w.cfg.OutputPath)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := w.tmpl.Execute(f, data); err != nil {
		f.Close()
		return "", fmt.Errorf("render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	w.logger.Info("report written",
		zap.String("path", w.cfg.OutputPath),
		zap.Int("animals", summary.TotalAnimals),
		zap.Int("adjectives", summary.TotalAdjectives),
	)
	return w.cfg.OutputPath, nil
}

// SummaryFromOutcomes derives the image counters from the fetch outcomes.
func SummaryFromOutcomes(outcomes []fauna.FetchOutcome) Summary {
	var s Summary
	for _, out := range outcomes {
		if out.OK {
			s.ImagesFetched++
		} else {
			s.ImagesFailed++
		}
	}
	return s
}

func relativeImagePath(reportDir, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	rel, err := filepath.Rel(reportDir, imagePath)
	if err != nil {
		return imagePath
	}
	return filepath.ToSlash(rel)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Georgia, serif; margin: 0; background: #f4f1ea; color: #2b2b2b; }
  header { background: #35424a; color: #f4f1ea; padding: 24px 32px; }
  header h1 { margin: 0 0 8px; font-size: 28px; }
  .stats { display: flex; gap: 24px; padding: 16px 32px; background: #e8e2d4; font-size: 14px; flex-wrap: wrap; }
  .stats span b { font-size: 18px; }
  main { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; padding: 24px 32px; }
  .card { background: #fff; border-radius: 6px; box-shadow: 0 1px 3px rgba(0,0,0,.15); overflow: hidden; }
  .card img { width: 100%; height: 160px; object-fit: cover; display: block; }
  .card .noimg { width: 100%; height: 160px; display: flex; align-items: center; justify-content: center; background: #ddd6c5; color: #8a8271; font-size: 13px; }
  .card .body { padding: 12px 16px; }
  .card h2 { margin: 0 0 4px; font-size: 18px; }
  .card .adj { font-style: italic; color: #5a5142; }
  footer { padding: 16px 32px; font-size: 12px; color: #6f675a; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <div>Source: {{.Summary.SourceURL}}</div>
</header>
<div class="stats">
  <span><b>{{.Summary.TotalAnimals}}</b> animals</span>
  <span><b>{{.Summary.TotalAdjectives}}</b> adjectives</span>
  <span><b>{{.Summary.ImagesFetched}}</b> images fetched</span>
  <span><b>{{.Summary.ImagesFailed}}</b> image failures</span>
</div>
<main>
{{range .Groups}}  <div class="card">
    {{if .ImagePath}}<img src="{{.ImagePath}}" alt="{{.Animal}}">{{else}}<div class="noimg">no image</div>{{end}}
    <div class="body">
      <h2>{{.Animal}}</h2>
      <div class="adj">{{join .Adjectives ", "}}</div>
    </div>
  </div>
{{end}}</main>
<footer>
  Generated {{.Summary.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}{{if .Summary.Duration}} in {{.Summary.Duration}}{{end}}.
</footer>
</body>
</html>
`
