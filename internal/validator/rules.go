package validator

import (
	"reflect"
	"regexp"
	"strings"

	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/services/dto"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// registerCustomRules регистрирует кастомные правила.
// Ошибка регистрации - ошибка конфигурации, приложение не стартует.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			logger.Fatal("failed to register custom validation tag", "tag", tag, "error", err)
		}
	}

	// 'username': буквы, цифры, '-' и '_'
	mustRegister("username", validateUsername)

	// 'notblank': строка не пустая после TrimSpace
	mustRegister("notblank", validateNotBlank)

	// dto.OptionalString проверяется как обычная строка, отсутствие/null пропускаются omitempty
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if o, ok := field.Interface().(dto.OptionalString); ok {
			return o.ValidationValue()
		}
		return nil
	}, dto.OptionalString{})
}

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустое значение проверяет 'required'
	}
	return usernamePattern.MatchString(value)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
