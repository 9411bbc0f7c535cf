// Package validate wraps go-playground/validator with English translations
// so request structs can be checked through `validate` struct tags.
package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	slugTag   = "slug"
	slugText  = "{0} may only contain lowercase letters, digits and single dashes"
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	usernameTag   = "username"
	usernameText  = "{0} can only contain letters, numbers, and underscores"
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	requiredTag  = "required"
	requiredText = "{0} is required"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(slugTag, func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	registerTranslation(slugTag, slugText, false)

	_ = validate.RegisterValidation(usernameTag, func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	registerTranslation(usernameTag, usernameText, false)

	registerTranslation(requiredTag, requiredText, true)
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns the first failure as a readable error.
// A nil return means s passed every rule.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(verrs[0].Translate(translator))
	}
	return err
}

// Var validates a single value against tag, e.g. Var(url, "url").
func Var(field any, tag string) error {
	err := validate.Var(field, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(verrs[0].Translate(translator))
	}
	return err
}
