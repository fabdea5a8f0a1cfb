package accounts

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used to parse phone numbers that are not
// in international format.
var DefaultPhoneRegion = "US"

// Validate will run validation rules
func (i SignUpInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&i.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&i.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&i.Phone, validation.By(ValidPhoneNumber)),
		validation.Field(&i.Password, validation.Required, validation.Length(8, 100)),
	)
}

// Validate will run validation rules
func (i SignInInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required, is.Email),
		validation.Field(&i.Password, validation.Required),
	)
}

// ValidPhoneNumber accepts empty values and otherwise requires a parseable,
// valid phone number.
func ValidPhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation output into a
// field -> message map for API responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
