// Package forms validates user-submitted form input before it reaches storage.
package forms

import (
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxImageSize   = 5 << 20
	MaxUsernameLen = 150
	MaxTitleLen    = 200
	MaxSlugLen     = 100
	MinPasswordLen = 8
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9_-]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

	// Accepted image content types and the extension stored with them
	imageTypes = map[string]string{
		"image/gif":  ".gif",
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
)

// Errors maps a field name to its validation messages.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the first message for a field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Image is an uploaded file read into memory.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Ext is the file extension matching the detected content type.
func (i *Image) Ext() string {
	return imageTypes[i.ContentType]
}

// PostForm is the create/edit post form. Group holds a group slug, empty for none.
type PostForm struct {
	Text  string
	Group string
	Image *Image
}

func (f *PostForm) Validate() Errors {
	errs := Errors{}
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	if f.Text == "" {
		errs.Add("text", "Post text is required.")
	}
	if f.Image != nil {
		validateImage(f.Image, errs)
	}
	return errs
}

// CommentForm is the comment form on the post detail page.
type CommentForm struct {
	Text string
}

func (f *CommentForm) Validate() Errors {
	errs := Errors{}
	f.Text = strings.TrimSpace(f.Text)
	if f.Text == "" {
		errs.Add("text", "Comment text is required.")
	}
	return errs
}

// GroupForm creates a group.
type GroupForm struct {
	Title       string
	Slug        string
	Description string
}

func (f *GroupForm) Validate() Errors {
	errs := Errors{}
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Description = strings.TrimSpace(f.Description)

	switch {
	case f.Title == "":
		errs.Add("title", "Title is required.")
	case utf8.RuneCountInString(f.Title) > MaxTitleLen:
		errs.Add("title", "Title is too long.")
	}
	switch {
	case f.Slug == "":
		errs.Add("slug", "Slug is required.")
	case len(f.Slug) > MaxSlugLen:
		errs.Add("slug", "Slug is too long.")
	case !slugPattern.MatchString(f.Slug):
		errs.Add("slug", "Slug may contain only lowercase letters, digits, hyphens and underscores.")
	}
	return errs
}

// SignupForm creates an account.
type SignupForm struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
	Password2 string
}

func (f *SignupForm) Validate() Errors {
	errs := Errors{}
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)

	switch {
	case f.Username == "":
		errs.Add("username", "Username is required.")
	case utf8.RuneCountInString(f.Username) > MaxUsernameLen:
		errs.Add("username", "Username is too long.")
	case !usernamePattern.MatchString(f.Username):
		errs.Add("username", "Username may contain only letters, digits and @/./+/-/_ characters.")
	}
	if len(f.Password) < MinPasswordLen {
		errs.Add("password", "Password must be at least 8 characters.")
	}
	if f.Password != f.Password2 {
		errs.Add("password2", "Passwords do not match.")
	}
	return errs
}

func validateImage(img *Image, errs Errors) {
	if len(img.Data) == 0 {
		errs.Add("image", "The uploaded file is empty.")
		return
	}
	if len(img.Data) > MaxImageSize {
		errs.Add("image", "The image must be at most 5 MB.")
		return
	}
	img.ContentType = http.DetectContentType(img.Data)
	if _, ok := imageTypes[img.ContentType]; !ok {
		errs.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
}

// ReadImage reads the named multipart file field. It returns nil when no file was sent.
func ReadImage(r *http.Request, field string) (*Image, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readUpload(file, header)
}

func readUpload(file multipart.File, header *multipart.FileHeader) (*Image, error) {
	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}
	// One byte over the limit is enough to reject the upload
	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	return &Image{Filename: path.Base(header.Filename), Data: data}, nil
}
