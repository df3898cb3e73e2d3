package utils

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorWrapsOrigin(t *testing.T) {
	err := NewAppError(ErrNotFound, "post not found", sql.ErrNoRows)

	assert.Equal(t, "post not found: "+sql.ErrNoRows.Error(), err.Error())
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.True(t, IsErrorCode(fmt.Errorf("lookup: %w", err), ErrNotFound))
	assert.False(t, IsErrorCode(err, ErrDuplicate))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrNotFound))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":    {NewNotFoundError("group"), http.StatusNotFound},
		"duplicate":    {NewAppError(ErrDuplicate, "follow", nil), http.StatusConflict},
		"protected":    {NewAppError(ErrProtected, "group", nil), http.StatusConflict},
		"unauthorized": {NewUnauthorizedError("login required"), http.StatusUnauthorized},
		"forbidden":    {NewAppError(ErrForbidden, "edit", nil), http.StatusForbidden},
		"database":     {NewAppError(ErrDatabase, "query", nil), http.StatusInternalServerError},
		"plain":        {errors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(NewUnauthorizedError("login required")))
	assert.True(t, IsAuthError(NewAppError(ErrInvalidToken, "token", nil)))
	assert.False(t, IsAuthError(NewNotFoundError("user")))
	assert.False(t, IsAuthError(nil))
}
