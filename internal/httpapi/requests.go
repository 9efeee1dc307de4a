package httpapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/PabloPavan/bookshelf_api/internal/books"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return strings.TrimSpace(field.String()) != ""
	})
	validate.RegisterValidation("trimmedemail", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		email := strings.TrimSpace(field.String())
		if email == "" {
			return false
		}
		if len(email) > 254 {
			return false
		}
		return validate.Var(email, "email") == nil
	})
	validate.RegisterValidation("bookstatus", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return books.Status(strings.TrimSpace(field.String())).Valid()
	})
}

type SignupDTO struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Email    string `json:"email" validate:"required,notblank,trimmedemail"`
	Password string `json:"password" validate:"required,notblank,min=6,max=72"`
}

func (r *SignupDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Username": {
				"required": "username, email and password are required",
				"notblank": "username, email and password are required",
				"max":      "username is too long",
			},
			"Email": {
				"required":     "username, email and password are required",
				"notblank":     "username, email and password are required",
				"trimmedemail": "invalid email",
			},
			"Password": {
				"required": "username, email and password are required",
				"notblank": "username, email and password are required",
				"min":      "password is too short",
				"max":      "password is too long",
			},
		}, "invalid request")
	}
	return nil
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdateDTO struct {
	Username *string `json:"username,omitempty" validate:"omitempty,notblank,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,trimmedemail"`
	Role     *string `json:"role,omitempty"`
}

func (r *ProfileUpdateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Username": {
				"notblank": "invalid username",
				"max":      "username is too long",
			},
			"Email": {
				"trimmedemail": "invalid email",
			},
		}, "invalid request")
	}
	return nil
}

type RoleUpdateDTO struct {
	Role string `json:"role" validate:"required,notblank"`
}

func (r *RoleUpdateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Role": {"*": "role is required"},
		}, "invalid request")
	}
	return nil
}

type BookCreateDTO struct {
	Title       string   `json:"title" validate:"required,notblank,max=500"`
	Author      string   `json:"author" validate:"required,notblank,max=300"`
	Year        *int     `json:"year,omitempty" validate:"omitempty,min=0,max=9999"`
	Genre       string   `json:"genre" validate:"max=100"`
	Description string   `json:"description" validate:"max=20000"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=64"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Status      string   `json:"status" validate:"omitempty,bookstatus"`
	GoogleID    string   `json:"googleId" validate:"max=64"`
	ISBN        string   `json:"isbn" validate:"max=32"`
	CoverURL    string   `json:"coverUrl" validate:"max=2048"`
	InfoLink    string   `json:"infoLink" validate:"max=2048"`
}

func (r *BookCreateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Title": {
				"required": "title and author are required",
				"notblank": "title and author are required",
				"max":      "title is too long",
			},
			"Author": {
				"required": "title and author are required",
				"notblank": "title and author are required",
				"max":      "author is too long",
			},
			"Year":   {"*": "invalid year"},
			"Rating": {"*": "rating must be between 0 and 5"},
			"Status": {"bookstatus": "invalid status"},
			"Tags":   {"max": "too many tags"},
		}, "invalid request")
	}
	return nil
}

func (r *BookCreateDTO) toRequest() books.CreateBookRequest {
	return books.CreateBookRequest{
		Title:       r.Title,
		Author:      r.Author,
		Year:        r.Year,
		Genre:       r.Genre,
		Description: r.Description,
		Tags:        r.Tags,
		Rating:      r.Rating,
		Status:      r.Status,
		GoogleID:    r.GoogleID,
		ISBN:        r.ISBN,
		CoverURL:    r.CoverURL,
		InfoLink:    r.InfoLink,
	}
}

type BookUpdateDTO struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,notblank,max=500"`
	Author      *string   `json:"author,omitempty" validate:"omitempty,notblank,max=300"`
	Year        *int      `json:"year,omitempty" validate:"omitempty,min=0,max=9999"`
	Genre       *string   `json:"genre,omitempty" validate:"omitempty,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=20000"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=64"`
	Rating      *float64  `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,bookstatus"`
	IsPublic    *bool     `json:"isPublic,omitempty"`
	ISBN        *string   `json:"isbn,omitempty" validate:"omitempty,max=32"`
	CoverURL    *string   `json:"coverUrl,omitempty" validate:"omitempty,max=2048"`
}

func (r *BookUpdateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Title":  {"notblank": "title cannot be empty", "max": "title is too long"},
			"Author": {"notblank": "author cannot be empty", "max": "author is too long"},
			"Year":   {"*": "invalid year"},
			"Rating": {"*": "rating must be between 0 and 5"},
			"Status": {"bookstatus": "invalid status"},
			"Tags":   {"max": "too many tags"},
		}, "invalid request")
	}
	return nil
}

func (r *BookUpdateDTO) toInput() books.UpdateBookInput {
	return books.UpdateBookInput{
		Title:       r.Title,
		Author:      r.Author,
		Year:        r.Year,
		Genre:       r.Genre,
		Description: r.Description,
		Tags:        r.Tags,
		Rating:      r.Rating,
		Status:      r.Status,
		IsPublic:    r.IsPublic,
		ISBN:        r.ISBN,
		CoverURL:    r.CoverURL,
	}
}

type BulkDeleteDTO struct {
	IDs []string `json:"ids"`
}

type WishlistBulkDTO struct {
	BookIDs []string `json:"bookIds"`
}

func validationMessage(err error, messages map[string]map[string]string, fallback string) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return errors.New(fallback)
	}
	for _, valErr := range valErrs {
		if fieldMessages, ok := messages[valErr.Field()]; ok {
			if msg, ok := fieldMessages[valErr.Tag()]; ok {
				return errors.New(msg)
			}
			if msg, ok := fieldMessages["*"]; ok {
				return errors.New(msg)
			}
		}
	}
	return errors.New(fallback)
}
