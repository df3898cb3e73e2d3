package engine

import (
	"context"
	"errors"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = bcrypt.DefaultCost

// SignUp validates the form and creates an account with a bcrypt-hashed password.
func (e *Engine) SignUp(ctx context.Context, form *forms.SignupForm) (user *models.User, errs forms.Errors, err error) {
	ctx, op := e.begin(ctx, "sign_up")
	defer op.end(ctx, &err)

	if errs = form.Validate(); !errs.Valid() {
		return nil, errs, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), e.bcryptCost)
	if err != nil {
		return nil, nil, utils.NewAppError(utils.ErrInvalidInput, "failed to hash password", err)
	}

	user = &models.User{
		Username:       form.Username,
		FirstName:      form.FirstName,
		LastName:       form.LastName,
		HashedPassword: string(hashedPassword),
		CreatedAt:      e.now(),
	}
	err = e.users.Create(ctx, user)
	if utils.IsErrorCode(err, utils.ErrDuplicate) {
		errs.Add("username", "A user with that username already exists.")
		return nil, errs, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return user, nil, nil
}

// Authenticate checks a username and password. Both an unknown username and a wrong password
// yield the same INVALID_CREDENTIALS error.
func (e *Engine) Authenticate(ctx context.Context, username, password string) (user *models.User, err error) {
	ctx, op := e.begin(ctx, "authenticate")
	defer op.end(ctx, &err)

	user, err = e.users.GetByUsername(ctx, username)
	if utils.IsErrorCode(err, utils.ErrNotFound) {
		return nil, utils.NewAppError(utils.ErrInvalidCredentials, "invalid username or password", nil)
	}
	if err != nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return nil, utils.NewAppError(utils.ErrInvalidCredentials, "invalid username or password", nil)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidCredentials, "invalid username or password", err)
	}
	return user, nil
}
