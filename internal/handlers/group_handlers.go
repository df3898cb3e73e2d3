package handlers

import "net/http"

// HandleGroup renders the posts filed under a group.
func (s *Server) HandleGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group, page, err := s.Engine.GroupPosts(r.Context(), r.PathValue("slug"), r.URL.Query().Get("page"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "group_list.html", &viewData{Group: group, Page: page})
	}
}
