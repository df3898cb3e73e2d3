package forms

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smallest valid GIF
var tinyGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x21, 0xf9, 0x04,
	0x01, 0x0a, 0x00, 0x01, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x4c, 0x01, 0x00, 0x3b,
}

func TestPostFormRequiresText(t *testing.T) {
	form := &PostForm{Text: "  \n\t "}
	errs := form.Validate()
	assert.False(t, errs.Valid())
	assert.Equal(t, "Post text is required.", errs.Get("text"))

	form = &PostForm{Text: "  hello  ", Group: " cats "}
	assert.True(t, form.Validate().Valid())
	assert.Equal(t, "hello", form.Text)
	assert.Equal(t, "cats", form.Group)
}

func TestPostFormImage(t *testing.T) {
	form := &PostForm{Text: "pic", Image: &Image{Filename: "small.gif", Data: tinyGIF}}
	require.True(t, form.Validate().Valid())
	assert.Equal(t, "image/gif", form.Image.ContentType)
	assert.Equal(t, ".gif", form.Image.Ext())

	form = &PostForm{Text: "pic", Image: &Image{Filename: "notes.txt", Data: []byte("just some text")}}
	errs := form.Validate()
	assert.Contains(t, errs.Get("image"), "Upload a valid image")

	form = &PostForm{Text: "pic", Image: &Image{Filename: "empty.png"}}
	assert.Equal(t, "The uploaded file is empty.", form.Validate().Get("image"))
}

func TestCommentFormRequiresText(t *testing.T) {
	assert.False(t, (&CommentForm{Text: " "}).Validate().Valid())
	assert.True(t, (&CommentForm{Text: "nice"}).Validate().Valid())
}

func TestGroupFormSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"cats", true},
		{"cats_and-dogs-2", true},
		{"Cats", false},
		{"cats dogs", false},
		{"", false},
		{strings.Repeat("a", MaxSlugLen+1), false},
	}
	for _, tt := range tests {
		form := &GroupForm{Title: "Title", Slug: tt.slug}
		assert.Equal(t, tt.valid, form.Validate().Valid(), "slug %q", tt.slug)
	}

	assert.NotEmpty(t, (&GroupForm{Slug: "ok"}).Validate().Get("title"))
}

func TestSignupForm(t *testing.T) {
	form := &SignupForm{Username: "alice", Password: "password123", Password2: "password123"}
	assert.True(t, form.Validate().Valid())

	form = &SignupForm{Username: "al ice", Password: "short", Password2: "other"}
	errs := form.Validate()
	assert.NotEmpty(t, errs.Get("username"))
	assert.NotEmpty(t, errs.Get("password"))
	assert.NotEmpty(t, errs.Get("password2"))
}

func TestReadImage(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "hello"))
	fw, err := mw.CreateFormFile("image", "dir/small.gif")
	require.NoError(t, err)
	_, err = fw.Write(tinyGIF)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(MaxImageSize))

	img, err := ReadImage(req, "image")
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "small.gif", img.Filename)
	assert.Equal(t, tinyGIF, img.Data)

	img, err = ReadImage(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, img)
}
