package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"yatube/internal/cache"
	"yatube/internal/engine"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/utils"

	"github.com/google/uuid"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds all server dependencies
type Server struct {
	Engine   *engine.Engine
	Sessions *middleware.Sessions
	Cache    *cache.PageCache
	Media    media.Store
	Metrics  *utils.MetricsCollector
	DB       Pinger

	// MetricsHandler is mounted at /metrics when set
	MetricsHandler http.Handler

	templates *renderer
}

// NewServer creates a new Server instance with the given components
func NewServer(
	eng *engine.Engine,
	sessions *middleware.Sessions,
	pageCache *cache.PageCache,
	mediaStore media.Store,
	metrics *utils.MetricsCollector,
	db Pinger,
) (*Server, error) {
	templates, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		Engine:    eng,
		Sessions:  sessions,
		Cache:     pageCache,
		Media:     mediaStore,
		Metrics:   metrics,
		DB:        db,
		templates: templates,
	}, nil
}

// handleError renders not-found errors as the 404 page, sends auth errors to the login page
// and answers other AppErrors with their mapped status. Anything else is a 500.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidKey) {
		s.notFound(w, r)
		return
	}
	if utils.IsAuthError(err) && r.Method == http.MethodGet {
		redirect(w, r, middleware.LoginRedirectURL(r.URL.RequestURI()))
		return
	}

	switch status := utils.HTTPStatus(err); {
	case status == http.StatusNotFound:
		s.notFound(w, r)
	case status >= http.StatusInternalServerError:
		s.serverError(w, r, err)
	default:
		slog.Debug("http: request refused", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
	}
}

// pathID parses a UUID path value. Malformed IDs are reported as not found.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, utils.NewAppError(utils.ErrNotFound, name+" not found", err)
	}
	return id, nil
}

// viewerKey varies cached pages by the signed-in user.
func viewerKey(r *http.Request) string {
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		return id.String()
	}
	return "anonymous"
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uuid.UUID) string {
	return "/posts/" + id.String() + "/"
}
