package config

import (
	"errors"
	"reflect"

	enLocal "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/cast"

	"gomod.pri/cobf/xerror"
)

// Validate checks v against its validate tags and reports the first
// violation as an English sentence.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return xerror.New(xerror.CodeConfigError, err)
	}
	for _, e := range verrs {
		return xerror.New(xerror.CodeConfigError, errors.New(e.Translate(trans)))
	}
	return nil
}

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("label")
	})

	local := enLocal.New()
	trans, _ = ut.New(local).GetTranslator(local.Locale())
	_ = enTrans.RegisterDefaultTranslations(validate, trans)

	initCustomValidator(validate)
}

func initCustomValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("seed", func(fl validator.FieldLevel) bool {
		_, err := ParseSeed(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterTranslation("seed", trans,
		func(ut ut.Translator) error {
			return ut.Add("seed", "{0} must be a non-negative decimal or 0x-prefixed hex integer", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("seed", fe.Field())
			return msg
		},
	)
}

// ParseSeed accepts decimal, 0x hex, 0o octal and 0b binary seeds.
func ParseSeed(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return cast.ToUint64E(s)
}
