package handlers

import (
	"log/slog"
	"net/http"

	"yatube/internal/forms"
	"yatube/internal/middleware"
)

// HandleAddComment stores a comment and returns to the post. An empty comment is dropped.
func (s *Server) HandleAddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.UserFromContext(r.Context())

		id, err := pathID(r, "id")
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		post, err := s.Engine.Post(r.Context(), id)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		form := &forms.CommentForm{Text: r.FormValue("text")}
		_, errs, err := s.Engine.AddComment(r.Context(), post, viewer, form)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if errs != nil {
			slog.Debug("handlers: comment rejected", "post", post.ID, "errors", errs)
		}
		redirect(w, r, postURL(post.ID))
	}
}
