package validation

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// Engine exposes the underlying validate instance for handlers that
// report field errors themselves.
func (v *Validator) Engine() *validator.Validate {
	return v.v
}
