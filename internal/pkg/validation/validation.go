// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
)

// TagDateOnly accepts a YYYY-MM-DD calendar date.
const TagDateOnly = "date_only"

func dateOnly(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := daterange.Parse(s)
	return err == nil
}

// Register adds the custom tags to v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagDateOnly, dateOnly); err != nil {
		return fmt.Errorf("register %s: %w", TagDateOnly, err)
	}
	return nil
}

// RegisterWithGin adds the custom tags to gin's binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
