package validation

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-()]{2,19}$`)

type customRule struct {
	tag  string
	fn   validator.Func
	text string
}

var customRules = []customRule{
	{tag: "phone", fn: isPhoneNumber, text: "{0} must be a valid phone number"},
}

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate, translator ut.Translator) error {
	for _, rule := range customRules {
		if err := v.RegisterValidation(rule.tag, rule.fn); err != nil {
			return err
		}
		if err := registerTranslation(v, translator, rule.tag, rule.text, false); err != nil {
			return err
		}
	}
	// Сообщение как у Laravel: "The name field is required."
	return registerTranslation(v, translator, "required", "The {0} field is required.", true)
}

func registerTranslation(v *validator.Validate, translator ut.Translator, tag, text string, override bool) error {
	return v.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// isPhoneNumber - цифры, пробелы, дефисы, скобки, опционально "+" в начале
func isPhoneNumber(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}
