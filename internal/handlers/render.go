package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"yatube/internal/engine"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/pagination"
)

//go:embed templates
var templateFS embed.FS

var pages = []string{
	"index.html",
	"group_list.html",
	"profile.html",
	"post_detail.html",
	"post_create.html",
	"follow.html",
	"login.html",
	"signup.html",
	"about_author.html",
	"about_tech.html",
	"404.html",
}

var templateFuncs = template.FuncMap{
	"mediaURL": func(key string) string { return "/media/" + key },
	"pageURL":  func(n int) string { return "?page=" + strconv.Itoa(n) },
	"date":     func(t time.Time) string { return t.Format("2 January 2006") },
}

// renderer holds one parsed template set per page, each layered over the base layout and
// the shared includes.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	base, err := template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/includes/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base templates: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+page); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// viewData is the data every page template receives.
type viewData struct {
	Viewer   *models.User
	Path     string
	Page     pagination.Page[*models.Post]
	Group    *models.Group
	Profile  *engine.Profile
	Post     *models.Post
	Comments []*models.Comment
	Groups   []*models.Group
	Values   map[string]string
	Errors   forms.Errors
	IsEdit   bool
	Next     string
}

// render executes a page into a buffer first so a template error never yields half a page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data *viewData) {
	t, ok := s.templates.pages[page]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown page template %q", page))
		return
	}
	if data == nil {
		data = &viewData{}
	}
	data.Viewer, _ = middleware.UserFromContext(r.Context())
	data.Path = r.URL.Path
	if data.Errors == nil {
		data.Errors = forms.Errors{}
	}
	if data.Values == nil {
		data.Values = map[string]string{}
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.serverError(w, r, fmt.Errorf("failed to render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// templateNames is used by tests to make sure every page parses.
func templateNames() ([]string, error) {
	return fs.Glob(templateFS, "templates/*.html")
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "404.html", nil)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("http: request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
