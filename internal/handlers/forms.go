package handlers

import (
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/validators"
)

// The *FormView types carry submitted values and errors back into the form
// templates. Passwords are never echoed.

type PostFormView struct {
	Text   string
	Group  string
	Image  string
	Groups []models.Group
	Errors validators.FieldErrors
}

type CommentFormView struct {
	Text   string
	Errors validators.FieldErrors
}

type SignupFormView struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Errors    validators.FieldErrors
}

type LoginFormView struct {
	Username string
	Errors   validators.FieldErrors
}

type EmailFormView struct {
	Email  string
	Errors validators.FieldErrors
}

type PasswordFormView struct {
	Errors validators.FieldErrors
}
