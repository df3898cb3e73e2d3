package handlers

import (
	"net/http"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/utils"
)

// HandleProfile renders an author's posts with their follow counters.
func (s *Server) HandleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.UserFromContext(r.Context())

		profile, err := s.Engine.ProfileOf(r.Context(), r.PathValue("username"), viewer, r.URL.Query().Get("page"))
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, "profile.html", &viewData{Profile: profile, Page: profile.Posts})
	}
}

// HandleSignup creates an account and signs it in.
func (s *Server) HandleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			s.render(w, r, http.StatusOK, "signup.html", nil)
			return
		}

		form := &forms.SignupForm{
			Username:  r.FormValue("username"),
			FirstName: r.FormValue("first_name"),
			LastName:  r.FormValue("last_name"),
			Password:  r.FormValue("password"),
			Password2: r.FormValue("password2"),
		}
		user, errs, err := s.Engine.SignUp(r.Context(), form)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if errs != nil {
			s.render(w, r, http.StatusOK, "signup.html", &viewData{
				Values: map[string]string{
					"username":   form.Username,
					"first_name": form.FirstName,
					"last_name":  form.LastName,
				},
				Errors: errs,
			})
			return
		}

		if err := s.Sessions.Issue(w, user.ID); err != nil {
			s.serverError(w, r, err)
			return
		}
		redirect(w, r, "/")
	}
}

// HandleLogin signs a user in and returns them to the local "next" path.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := middleware.SafeNext(r.FormValue("next"), "/")

		if r.Method == http.MethodGet {
			s.render(w, r, http.StatusOK, "login.html", &viewData{Next: next})
			return
		}

		username := r.FormValue("username")
		user, err := s.Engine.Authenticate(r.Context(), username, r.FormValue("password"))
		if utils.IsErrorCode(err, utils.ErrInvalidCredentials) {
			errs := forms.Errors{}
			errs.Add("__all__", "Please enter a correct username and password.")
			s.render(w, r, http.StatusOK, "login.html", &viewData{
				Next:   next,
				Values: map[string]string{"username": username},
				Errors: errs,
			})
			return
		}
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		if err := s.Sessions.Issue(w, user.ID); err != nil {
			s.serverError(w, r, err)
			return
		}
		redirect(w, r, next)
	}
}

// HandleLogout clears the session.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Sessions.Clear(w)
		redirect(w, r, "/")
	}
}
