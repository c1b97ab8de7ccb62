package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GriffinCanCode/ProxyLauncher/backend/internal/domain/settings"
)

// ValidationError carries one message per offending form field
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(proxyRules, ProxyForm{})

	return v
}

// proxyRules: pac requires a url, every other type requires host and port
func proxyRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(ProxyForm)

	if f.Type == settings.ProxyPAC {
		if strings.TrimSpace(f.URL) == "" {
			sl.ReportError(f.URL, "url", "URL", "pac_url", "")
		}
		return
	}

	if strings.TrimSpace(f.Host) == "" {
		sl.ReportError(f.Host, "host", "Host", "proxy_host", "")
	}
	if f.Port == 0 {
		sl.ReportError(f.Port, "port", "Port", "proxy_port", "")
	}
}

// ValidateProxy checks a proxy form
func ValidateProxy(f ProxyForm) error {
	f.Name = trim(f.Name)
	return check(f)
}

// ValidateSite checks a site form
func ValidateSite(f SiteForm) error {
	f.Name = trim(f.Name)
	f.URL = trim(f.URL)
	return check(f)
}

// ValidatePreferences checks the settings page form
func ValidatePreferences(f PreferencesForm) error {
	f.DefaultLaunchURL = trim(f.DefaultLaunchURL)
	return check(f)
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		switch fe.Field() {
		case "browser_id", "default_browser":
			return "Please select a browser"
		}
		return "This field is required"
	case "url":
		return "Please enter a valid URL"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "min", "max":
		if fe.Field() == "port" {
			return "Port must be between 1-65535"
		}
		return fmt.Sprintf("Length must satisfy %s=%s", fe.Tag(), fe.Param())
	case "pac_url":
		return "PAC type requires URL"
	case "proxy_host", "proxy_port":
		return "Non-PAC types require host and port"
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}
