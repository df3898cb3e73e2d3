package handlers

import (
	"net/http"

	"yatube/internal/engine"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
)

// HandleIndex renders the latest posts of every author.
func (s *Server) HandleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.Engine.Index(r.Context(), r.URL.Query().Get("page"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "index.html", &viewData{Page: page})
	}
}

// HandlePostDetail renders a post with its comments and the comment form.
func (s *Server) HandlePostDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		post, comments, err := s.Engine.PostDetail(r.Context(), id)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "post_detail.html", &viewData{Post: post, Comments: comments})
	}
}

// parsePostForm reads the multipart post form including the optional image.
func parsePostForm(r *http.Request) (*forms.PostForm, error) {
	if err := r.ParseMultipartForm(forms.MaxImageSize); err != nil && err != http.ErrNotMultipart {
		return nil, err
	}
	form := &forms.PostForm{
		Text:  r.FormValue("text"),
		Group: r.FormValue("group"),
	}
	if r.MultipartForm != nil {
		image, err := forms.ReadImage(r, "image")
		if err != nil {
			return nil, err
		}
		form.Image = image
	}
	return form, nil
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, form *forms.PostForm, errs forms.Errors, isEdit bool) {
	groups, err := s.Engine.Groups(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "post_create.html", &viewData{
		Groups: groups,
		Values: map[string]string{"text": form.Text, "group": form.Group},
		Errors: errs,
		IsEdit: isEdit,
	})
}

// HandleCreatePost shows the new post form and creates the post. On success the author is
// sent to their profile.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.UserFromContext(r.Context())

		if r.Method == http.MethodGet {
			s.renderPostForm(w, r, &forms.PostForm{}, nil, false)
			return
		}

		form, err := parsePostForm(r)
		if err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		_, errs, err := s.Engine.CreatePost(r.Context(), viewer, form)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if errs != nil {
			s.renderPostForm(w, r, form, errs, false)
			return
		}
		redirect(w, r, profileURL(viewer.Username))
	}
}

// HandleEditPost lets the author edit a post. Anyone else is sent back to the post.
func (s *Server) HandleEditPost() http.HandlerFunc {
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
		if post.AuthorID != viewer.ID {
			redirect(w, r, postURL(post.ID))
			return
		}

		if r.Method == http.MethodGet {
			s.renderPostForm(w, r, postFormOf(post), nil, true)
			return
		}

		form, err := parsePostForm(r)
		if err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		outcome, errs, err := s.Engine.EditPost(r.Context(), post, viewer, form)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if outcome == engine.EditApplied && errs != nil {
			s.renderPostForm(w, r, form, errs, true)
			return
		}
		redirect(w, r, postURL(post.ID))
	}
}

func postFormOf(post *models.Post) *forms.PostForm {
	form := &forms.PostForm{Text: post.Text}
	if post.HasGroup() {
		form.Group = post.GroupSlug.String
	}
	return form
}
