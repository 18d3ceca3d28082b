package webserver

import (
	"github.com/go-playground/validator/v10"
)

// PayloadValidator wires go-playground struct tags into echo's c.Validate
type PayloadValidator struct {
	validate *validator.Validate
}

func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{validate: validator.New()}
}

func (v *PayloadValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
