package validation

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"proposal-autofill/internal/prompts"
)

// ValidateTabID accepts the UUIDs the tab registry hands out
func ValidateTabID(fl validator.FieldLevel) bool {
	_, err := uuid.Parse(fl.Field().String())
	return err == nil
}

// ValidateTemplateType accepts the known prompt template types
func ValidateTemplateType(fl validator.FieldLevel) bool {
	return prompts.Known(fl.Field().String())
}

// ValidatePageURL accepts absolute http(s) URLs only
func ValidatePageURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// RegisterValidators registers the request validators on v
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("tab_id", ValidateTabID)
	v.RegisterValidation("template_type", ValidateTemplateType)
	v.RegisterValidation("page_url", ValidatePageURL)
}

// New returns a validator with the request validators registered
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}
