// Package validate checks verification requests and configuration before
// any external call is made.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/truthguard/internal/model"
)

// MaxTextBytes bounds the text of one verification request
const MaxTextBytes = 256 * 1024

// Validator wraps a go-playground validator with the custom tags used by
// the model types
type Validator struct {
	v *validator.Validate
}

// New creates a validator
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", validateMaxBytes)
	return &Validator{v: v}
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxTextBytes
}

// Request validates mode and top_k. Empty text is left to the extractor,
// which reports it as an extraction error.
func (v *Validator) Request(req model.VerifyRequest) error {
	if err := v.v.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", model.ErrInvalidRequest, describe(err))
	}
	return nil
}

// Config validates a loaded configuration
func (v *Validator) Config(cfg *model.Config) error {
	if err := v.v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %s", describe(err))
	}
	return nil
}

// describe flattens validation errors into one readable line
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value())))
		case "maxbytes":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %d bytes", field, MaxTextBytes))
		case "min", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
