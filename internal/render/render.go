// Package render turns archived posts into the data an HTML snapshot needs
// and writes that snapshot to disk.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Stylesheets are written beside index.html in every snapshot.
var Stylesheets = []string{"normalize.css", "styles.css"}

// IndexFile is the rendered page name.
const IndexFile = "index.html"

// Page is the value handed to the index template.
type Page struct {
	Title       string
	GeneratedAt time.Time
	About       template.HTML
	SiteIcon    string // file name inside the snapshot, empty for none
	Posts       []PostView
}

// Renderer renders snapshot pages.
type Renderer struct {
	index  *template.Template
	static fs.FS
}

// NewRenderer parses the embedded templates.
func NewRenderer() *Renderer {
	funcMap := template.FuncMap{
		"formatTime": formatTime,
		"px":         px,
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("render: template sub-FS: %v", err))
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("render: static sub-FS: %v", err))
	}

	return &Renderer{
		index:  template.Must(template.New("index.html").Funcs(funcMap).ParseFS(templateSub, "index.html")),
		static: staticSub,
	}
}

// Render executes the index template into a buffer.
func (r *Renderer) Render(page Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.index.ExecuteTemplate(&buf, "index.html", page); err != nil {
		return nil, fmt.Errorf("template execution: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSnapshot renders page into dir/index.html and writes the stylesheets.
// dir must already exist.
func (r *Renderer) WriteSnapshot(dir string, page Page) error {
	html, err := r.Render(page)
	if err != nil {
		return err
	}

	for _, name := range Stylesheets {
		data, err := fs.ReadFile(r.static, name)
		if err != nil {
			return fmt.Errorf("read stylesheet %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("write stylesheet %s: %w", name, err)
		}
	}

	if err := os.WriteFile(filepath.Join(dir, IndexFile), html, 0644); err != nil {
		return fmt.Errorf("write %s: %w", IndexFile, err)
	}
	return nil
}

// RenderMarkdown converts markdown to HTML using goldmark. Raw HTML in the
// source is dropped.
func RenderMarkdown(md []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// formatTime formats a time as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// px rounds a display dimension to whole pixels.
func px(f float64) int {
	return int(math.Round(f))
}
