/**
* Name:         site.go
* Description:  admin site registry, URL naming and shared page context
* Workflow:     Register model admins, Mount routes on a gin router, Reverse URL names
 */
package admin

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"formsadmin/internal/render"
)

var (
	ErrAlreadyRegistered = errors.New("admin: model already registered")
	ErrNoReverseMatch    = errors.New("admin: no reverse match")
)

// Meta names a registered model.
type Meta struct {
	AppLabel          string
	ModelName         string
	VerboseName       string
	VerboseNamePlural string
}

func (m Meta) Key() string {
	return m.AppLabel + "." + m.ModelName
}

// Route is one view of a model admin, relative to its /<app>/<model> base.
type Route struct {
	Methods []string
	Path    string
	View    string
	Handler gin.HandlerFunc
}

// ModelAdmin is what a Site registers.
type ModelAdmin interface {
	Meta() Meta
	URLs(site *Site) []Route
}

type registration struct {
	admin  ModelAdmin
	routes []Route
}

// Site is an admin site: a registry of model admins mounted under one prefix.
type Site struct {
	Name      string
	Title     string
	prefix    string
	logoutURL string
	renderer  *render.Engine

	registry map[string]*registration
	order    []string
	urls     map[string]string
}

// SiteOption configures a Site.
type SiteOption func(*Site)

func WithTitle(title string) SiteOption {
	return func(s *Site) {
		if title = strings.TrimSpace(title); title != "" {
			s.Title = title
		}
	}
}

func WithLogoutURL(u string) SiteOption {
	return func(s *Site) {
		s.logoutURL = strings.TrimSpace(u)
	}
}

// NewSite creates an empty site mounted under prefix (for example "/admin").
func NewSite(prefix string, renderer *render.Engine, opts ...SiteOption) *Site {
	prefix = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "/" {
		prefix = ""
	}
	s := &Site{
		Name:     "admin",
		Title:    "Forms administration",
		prefix:   prefix,
		renderer: renderer,
		registry: make(map[string]*registration),
		urls:     make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.urls["index"] = s.prefix + "/"
	return s
}

// Register adds ma to the site. A model can only be registered once.
func (s *Site) Register(ma ModelAdmin) error {
	meta := ma.Meta()
	key := meta.Key()
	if s.IsRegistered(meta) {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, key)
	}

	routes := ma.URLs(s)
	base := s.modelPath(meta)
	for _, route := range routes {
		if route.View == "" {
			continue
		}
		s.urls[s.URLName(meta, route.View)] = base + route.Path
	}
	s.registry[key] = &registration{admin: ma, routes: routes}
	s.order = append(s.order, key)

	log.Debug().Str("model", key).Int("routes", len(routes)).Msg("admin: registered model")
	return nil
}

// IsRegistered reports whether a model admin for meta was registered.
func (s *Site) IsRegistered(meta Meta) bool {
	_, ok := s.registry[meta.Key()]
	return ok
}

// URLName is the reversible name of view for meta: <app>_<model>_<view>.
func (s *Site) URLName(meta Meta, view string) string {
	return fmt.Sprintf("%s_%s_%s", meta.AppLabel, meta.ModelName, view)
}

// Reverse resolves a URL name, filling ":param" segments with args in order.
func (s *Site) Reverse(name string, args ...string) (string, error) {
	pattern, ok := s.urls[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoReverseMatch, name)
	}
	segments := strings.Split(pattern, "/")
	next := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if next >= len(args) {
			return "", fmt.Errorf("%w: %q needs more arguments", ErrNoReverseMatch, name)
		}
		segments[i] = url.PathEscape(args[next])
		next++
	}
	if next != len(args) {
		return "", fmt.Errorf("%w: %q takes %d arguments", ErrNoReverseMatch, name, next)
	}
	return strings.Join(segments, "/"), nil
}

// MustReverse is Reverse for names the site itself registered.
func (s *Site) MustReverse(name string, args ...string) string {
	u, err := s.Reverse(name, args...)
	if err != nil {
		panic(err)
	}
	return u
}

// Mount registers the index and every model admin route on r. adminView runs
// before each of them, normally the staff session check.
func (s *Site) Mount(r gin.IRouter, adminView ...gin.HandlerFunc) {
	group := r.Group(s.prefix, adminView...)
	group.GET("/", s.index)

	for _, key := range s.order {
		reg := s.registry[key]
		base := strings.TrimPrefix(s.modelPath(reg.admin.Meta()), s.prefix)
		for _, route := range reg.routes {
			methods := route.Methods
			if len(methods) == 0 {
				methods = []string{http.MethodGet}
			}
			for _, method := range methods {
				group.Handle(method, base+route.Path, route.Handler)
			}
		}
	}
}

func (s *Site) modelPath(meta Meta) string {
	return s.prefix + "/" + meta.AppLabel + "/" + meta.ModelName
}

type indexEntry struct {
	VerboseNamePlural string
	ChangelistURL     string
	ExportURL         string
}

func (s *Site) index(c *gin.Context) {
	entries := make([]indexEntry, 0, len(s.order))
	for _, key := range s.order {
		meta := s.registry[key].admin.Meta()
		entry := indexEntry{VerboseNamePlural: meta.VerboseNamePlural}
		entry.ChangelistURL, _ = s.Reverse(s.URLName(meta, "changelist"))
		entry.ExportURL, _ = s.Reverse(s.URLName(meta, "export"))
		entries = append(entries, entry)
	}
	s.Render(c, http.StatusOK, "admin/index.html", render.Context{"models": entries})
}

// Context returns the values every admin page expects.
func (s *Site) Context(c *gin.Context) render.Context {
	return render.Context{
		"site_title": s.Title,
		"index_url":  s.urls["index"],
		"logout_url": s.logoutURL,
		"username":   c.GetString("username"),
		"messages":   ConsumeMessages(c),
	}
}

// Render renders a full admin page with the site context merged under data.
func (s *Site) Render(c *gin.Context, code int, name string, data render.Context) {
	ctx := s.Context(c)
	ctx.Update(data)
	s.renderer.HTML(c, code, name, ctx)
}

// MessageUser queues a message for the next admin page the user sees.
func (s *Site) MessageUser(c *gin.Context, text string, level Level) {
	AddMessage(c, level, text)
}
