package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates structs using `validate` tags. Handlers rely on gin's
// built-in binding validation; this is for service-level checks on values
// that never pass through a request binding.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (vl *Validator) Validate(obj interface{}) error {
	err := vl.v.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(fields, "; "))
}

func (vl *Validator) Var(value interface{}, tag string) error {
	return vl.v.Var(value, tag)
}
