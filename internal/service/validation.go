package service

import (
	"context"
	"regexp"

	"github.com/AdamBeresnev/school-cup/internal/bracket"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// hexcolor in validator also accepts the 3-digit and rgb() forms
	_ = v.RegisterValidation("teamcolor", func(fl validator.FieldLevel) bool {
		return hexColor.MatchString(fl.Field().String())
	})
	return v
}

// validateInput checks struct tags and reports failures as validation errors.
func validateInput(ctx context.Context, payload any) error {
	if err := validate.StructCtx(ctx, payload); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid input"), bracket.ErrValidation)
	}
	return nil
}
