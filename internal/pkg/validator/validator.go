package validator

import (
	"github.com/go-playground/validator/v10"
)

// Details turns a binding error into a field -> rule map for the error
// envelope. Non-validation errors produce nil.
func Details(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
