package handlers

import (
	"net/http"

	"yatube/internal/middleware"
)

// Routes builds the application's handler: every route plus the session, logging and
// recovery middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	login := middleware.RequireLogin

	cached := s.Cache.Middleware(viewerKey)
	mux.Handle("GET /{$}", cached(s.HandleIndex()))

	mux.HandleFunc("GET /group/{slug}/{$}", s.HandleGroup())
	mux.HandleFunc("GET /profile/{username}/{$}", s.HandleProfile())
	mux.HandleFunc("GET /posts/{id}/{$}", s.HandlePostDetail())

	mux.HandleFunc("GET /create/{$}", login(s.HandleCreatePost()))
	mux.HandleFunc("POST /create/{$}", login(s.HandleCreatePost()))
	mux.HandleFunc("GET /posts/{id}/edit/{$}", login(s.HandleEditPost()))
	mux.HandleFunc("POST /posts/{id}/edit/{$}", login(s.HandleEditPost()))
	mux.HandleFunc("POST /posts/{id}/comment/{$}", login(s.HandleAddComment()))

	mux.HandleFunc("GET /follow/{$}", login(s.HandleFollowIndex()))
	mux.HandleFunc("POST /profile/{username}/follow/{$}", login(s.HandleFollow()))
	mux.HandleFunc("POST /profile/{username}/unfollow/{$}", login(s.HandleUnfollow()))

	mux.HandleFunc("GET /auth/signup/{$}", s.HandleSignup())
	mux.HandleFunc("POST /auth/signup/{$}", s.HandleSignup())
	mux.HandleFunc("GET /auth/login/{$}", s.HandleLogin())
	mux.HandleFunc("POST /auth/login/{$}", s.HandleLogin())
	mux.HandleFunc("POST /auth/logout/{$}", s.HandleLogout())

	mux.HandleFunc("GET /about/author/{$}", s.HandleAbout("about_author.html"))
	mux.HandleFunc("GET /about/tech/{$}", s.HandleAbout("about_tech.html"))

	mux.HandleFunc("GET /media/{key...}", s.HandleMedia())
	mux.HandleFunc("GET /healthz", s.HandleHealth())
	if s.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.MetricsHandler)
	}

	mux.HandleFunc("/", s.HandleNotFound())

	return middleware.Chain(mux,
		middleware.RequestLogger(s.Metrics),
		middleware.Recover,
		s.Sessions.Authenticate(s.Engine),
	)
}
