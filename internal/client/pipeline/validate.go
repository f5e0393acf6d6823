package pipeline

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
	"github.com/dmitrijs2005/travelease/internal/client/models"
)

var fieldLabels = map[string]string{
	"Name":         "vehicle name",
	"Category":     "category",
	"Price":        "price per day",
	"Location":     "location",
	"Availability": "availability",
	"Description":  "description",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := models.ParsePrice(fl.Field().String())
		return err == nil
	})
	return v
}

// validateForm returns a ValidationError naming every bad field.
func validateForm(v *validator.Validate, f models.ListingForm) error {
	err := v.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return failure.Wrap(err, failure.ErrValidation, "invalid listing")
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		label := fieldLabels[fe.Field()]
		switch fe.Tag() {
		case "required":
			problems = append(problems, label+" is required")
		case "price":
			problems = append(problems, label+" must be a non-negative number")
		case "oneof":
			problems = append(problems, label+" must be Available or Booked")
		default:
			problems = append(problems, label+" is not valid")
		}
	}
	return failure.New(failure.ErrValidation, strings.Join(problems, "; "))
}
