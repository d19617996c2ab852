package render

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
)

//go:embed templates
var embedded embed.FS

// Context is the data passed to a template.
type Context = pongo2.Context

// Option configures an Engine.
type Option func(*config)

type config struct {
	overrideDir string
	globals     Context
}

// WithOverrideDir makes templates under dir shadow the embedded ones with the
// same path.
func WithOverrideDir(dir string) Option {
	return func(cfg *config) {
		cfg.overrideDir = strings.TrimSpace(dir)
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(globals Context) Option {
	return func(cfg *config) {
		if cfg.globals == nil {
			cfg.globals = Context{}
		}
		cfg.globals.Update(globals)
	}
}

// Engine renders the admin's Django-style templates.
type Engine struct {
	set *pongo2.TemplateSet
}

func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.overrideDir != "" {
		if _, err := os.Stat(cfg.overrideDir); err != nil {
			return nil, fmt.Errorf("render: override dir: %w", err)
		}
		loaders = append(loaders, pongo2.NewFSLoader(os.DirFS(cfg.overrideDir)))
	}
	templates, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("render: embedded templates: %w", err)
	}
	loaders = append(loaders, pongo2.NewFSLoader(templates))

	set := pongo2.NewSet("formsadmin", loaders...)
	set.Globals = Context{}
	if cfg.globals != nil {
		set.Globals.Update(cfg.globals)
	}
	return &Engine{set: set}, nil
}

// RenderToString renders the template at name with data.
func (e *Engine) RenderToString(name string, data Context) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("render: engine is nil")
	}
	tmpl, err := e.set.FromCache(name)
	if err != nil {
		return "", fmt.Errorf("render: load template %q: %w", name, err)
	}
	out, err := tmpl.Execute(data)
	if err != nil {
		return "", fmt.Errorf("render: execute template %q: %w", name, err)
	}
	return out, nil
}

// Fragment renders name and sanitizes the result so it can be embedded
// unescaped into another page.
func (e *Engine) Fragment(name string, data Context) (string, error) {
	out, err := e.RenderToString(name, data)
	if err != nil {
		return "", err
	}
	return Sanitize(out), nil
}

// HTML renders a full page onto c.
func (e *Engine) HTML(c *gin.Context, code int, name string, data Context) {
	out, err := e.RenderToString(name, data)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(code, "text/html; charset=utf-8", []byte(out))
}
