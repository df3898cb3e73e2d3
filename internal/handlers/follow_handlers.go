package handlers

import (
	"log/slog"
	"net/http"

	"yatube/internal/middleware"
)

// HandleFollowIndex renders the viewer's feed.
func (s *Server) HandleFollowIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.UserFromContext(r.Context())

		page, err := s.Engine.FeedFor(r.Context(), viewer.ID, r.URL.Query().Get("page"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "follow.html", &viewData{Page: page})
	}
}

// HandleFollow subscribes the viewer to an author and returns to the author's profile.
// Self and repeated follows are not reported to the user.
func (s *Server) HandleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.UserFromContext(r.Context())

		author, err := s.Engine.UserByUsername(r.Context(), r.PathValue("username"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		outcome, err := s.Engine.Follow(r.Context(), viewer.ID, author.ID)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		slog.Debug("handlers: follow", "user", viewer.Username, "author", author.Username, "outcome", outcome)
		redirect(w, r, profileURL(author.Username))
	}
}

// HandleUnfollow removes the viewer's subscription to an author.
func (s *Server) HandleUnfollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.UserFromContext(r.Context())

		author, err := s.Engine.UserByUsername(r.Context(), r.PathValue("username"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		outcome, err := s.Engine.Unfollow(r.Context(), viewer.ID, author.ID)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		slog.Debug("handlers: unfollow", "user", viewer.Username, "author", author.Username, "outcome", outcome)
		redirect(w, r, profileURL(author.Username))
	}
}
