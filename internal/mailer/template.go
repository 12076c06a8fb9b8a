package mailer

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed templates/*.template.html
var builtinTemplates embed.FS

// templateFile maps a template name to its conventional file name.
func templateFile(name string) string {
	return name + ".template.html"
}

// Renderer resolves a template name to a file and renders it against a
// context map. Templates in dir (when set) take precedence over the embedded
// defaults. A template only has to exist at render time, not at enqueue time.
type Renderer struct {
	dir string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewRenderer creates a Renderer. dir may be empty, in which case only the
// embedded templates are available.
func NewRenderer(dir string) *Renderer {
	return &Renderer{
		dir:   dir,
		cache: make(map[string]*template.Template),
	}
}

// Render produces the HTML body for the named template. Missing or broken
// templates are permanent failures: retrying cannot make them succeed.
func (r *Renderer) Render(name string, tmplCtx map[string]any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, tmplCtx); err != nil {
		return "", Permanent(fmt.Errorf("executing template %q: %w", name, err))
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return nil, Permanent(fmt.Errorf("invalid template name %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	src, err := r.read(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Parse(string(src))
	if err != nil {
		return nil, Permanent(fmt.Errorf("parsing template %q: %w", name, err))
	}
	r.cache[name] = tmpl
	return tmpl, nil
}

// read loads the template source, preferring the on-disk override.
func (r *Renderer) read(name string) ([]byte, error) {
	file := templateFile(name)

	if r.dir != "" {
		src, err := os.ReadFile(filepath.Join(r.dir, file))
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading template %q: %w", name, err)
		}
	}

	src, err := builtinTemplates.ReadFile("templates/" + file)
	if err != nil {
		return nil, Permanent(fmt.Errorf("template %q not found: %w", name, err))
	}
	return src, nil
}
