package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	apperrors "school-system/pkg/errors"
)

// CustomValidator - обертка для использования в Echo
type CustomValidator struct {
	validator  *validator.Validate
	translator ut.Translator
}

// Validate реализует интерфейс echo.Validator.
// Ошибки валидатора превращаются в *apperrors.ValidationError со всеми полями сразу.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return cv.Translate(fieldErrs)
	}
	return err
}

// Translate переводит ошибки полей в сообщения, ключ = json-имя поля.
func (cv *CustomValidator) Translate(fieldErrs validator.ValidationErrors) *apperrors.ValidationError {
	verr := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fe.Translate(cv.translator))
	}
	return verr
}

// New создает и настраивает валидатор
func New() *CustomValidator {
	v := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		panic("ошибка регистрации переводов валидатора: " + err.Error())
	}

	// json-имена полей в ошибках вместо имен Go-структур
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerNullTypes(v)

	// без правил сервер не стартует
	if err := registerRules(v, translator); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}

	return &CustomValidator{validator: v, translator: translator}
}
