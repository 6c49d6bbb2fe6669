// Package render executes the admin page templates. Templates are compiled
// into the binary and can be overridden from a directory, which is reloaded
// on change.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var embedded embed.FS

const layoutFile = "layout.html"

// Page names.
const (
	PageIndex     = "index"
	PageDashboard = "dashboard"
	PageFlagged   = "flagged"
	PageReview    = "review"
	PageUpload    = "upload"
	PageError     = "error"
)

var pages = []string{PageIndex, PageDashboard, PageFlagged, PageReview, PageUpload, PageError}

// Renderer holds the parsed page set. Reload swaps it atomically, so Render
// may run concurrently with a reload.
type Renderer struct {
	mu     sync.RWMutex
	fsys   fs.FS
	dir    string
	pages  map[string]*template.Template
	logger *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets a logger for reload events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// New parses the templates in dir, or the embedded set when dir is empty.
func New(dir string, opts ...Option) (*Renderer, error) {
	r := &Renderer{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		r.fsys = sub
	} else {
		r.fsys = os.DirFS(dir)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the override directory, or "" for the embedded set.
func (r *Renderer) Dir() string {
	return r.dir
}

// Reload reparses every page. On error the previous set stays active.
func (r *Renderer) Reload() error {
	parsed := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.New(layoutFile).Funcs(FuncMap()).ParseFS(r.fsys, layoutFile, name+".html")
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		parsed[name] = t
	}
	r.mu.Lock()
	r.pages = parsed
	r.mu.Unlock()
	r.logger.Debug("templates loaded", zap.String("dir", r.dir), zap.Int("pages", len(parsed)))
	return nil
}

// Render executes page with data into w. Output is buffered so a failing
// template writes nothing.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	r.mu.RLock()
	t, ok := r.pages[page]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutFile, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
