package validators

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// isoDate accepts an empty string or a calendar date in YYYY-MM-DD form.
func isoDate(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
