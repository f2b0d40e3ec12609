// Package service sits between the HTTP handlers and the repositories. It
// validates input, turns repository and driver errors into the small error
// taxonomy the API reports, and assembles the few read models that are not
// a single table (the inbox, the admin counts).
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/repo"
)

// ─────────────────────────────────────────────────────────────────────────────
// Errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("service: invalid input")

	// ErrForbidden means the caller may not act on the resource.
	ErrForbidden = errors.New("service: forbidden")

	// ErrProfileRequired means the caller needs a completed profile, with a
	// specific role, before doing this.
	ErrProfileRequired = errors.New("service: profile required")

	// ErrProfileExists is returned for a second profile completion.
	ErrProfileExists = errors.New("service: profile already completed")

	// ErrInvalidTransition means the application has already been reviewed.
	ErrInvalidTransition = errors.New("service: invalid status transition")

	// ErrListingClosed means the listing no longer accepts applications.
	ErrListingClosed = errors.New("service: listing is closed")
)

// translate maps repository sentinels onto the service taxonomy. The original
// error stays in the chain, so db.IsNotFound and friends keep working.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, repo.ErrProfileRequired):
		return fmt.Errorf("%w: %w", ErrProfileRequired, err)
	case errors.Is(err, repo.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, repo.ErrListingClosed):
		return fmt.Errorf("%w: %w", ErrListingClosed, err)
	case db.IsCheckViolation(err), db.IsValueTooLong(err):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and folds the field errors into one
// ErrInvalidInput.
func check(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "nefield":
		return fe.Field() + " must differ from " + strings.ToLower(fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must not be empty", fe.Field())
	case "excludes":
		return fmt.Sprintf("%s must not contain %q", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ─────────────────────────────────────────────────────────────────────────────
// Services
// ─────────────────────────────────────────────────────────────────────────────

// Services bundles every service over one database.
type Services struct {
	Identities   *Identities
	Profiles     *Profiles
	Listings     *Listings
	Applications *Applications
	Messages     *Messages
	Admin        *Admin
}

// deps is what every service shares.
type deps struct {
	db       *db.DB
	repos    *repo.Repositories
	validate *validator.Validate
	logger   *slog.Logger
}

// New wires every service to database. A nil logger means slog.Default().
func New(database *db.DB, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	d := &deps{
		db:       database,
		repos:    repo.New(database),
		validate: NewValidator(),
		logger:   logger,
	}
	return &Services{
		Identities:   &Identities{d},
		Profiles:     &Profiles{d},
		Listings:     &Listings{d},
		Applications: &Applications{d},
		Messages:     &Messages{d},
		Admin:        &Admin{d},
	}
}
