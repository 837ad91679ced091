package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/matricula/matricula/internal/model"
)

// trans is the English translator bound to Gin's binding engine.
var trans ut.Translator

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		trans = configure(v, "json")
	}
}

// FormValidator checks structs carrying `validate` tags, naming fields after
// their `form` tag. The web front end validates forms with it.
type FormValidator struct {
	v     *govalidator.Validate
	trans ut.Translator
}

// New returns a standalone FormValidator.
func New() *FormValidator {
	v := govalidator.New()
	return &FormValidator{v: v, trans: configure(v, "form")}
}

// Validate returns nil when dst is valid, otherwise field → message.
func (f *FormValidator) Validate(dst interface{}) map[string]string {
	err := f.v.Struct(dst)
	if err == nil {
		return nil
	}
	return translate(err, f.trans)
}

func configure(v *govalidator.Validate, nameTag string) ut.Translator {
	// Use the wire tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get(nameTag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("payment_method", func(fl govalidator.FieldLevel) bool {
		return model.PaymentMethod(fl.Field().String()).Valid()
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	t, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, t)
	_ = v.RegisterTranslation("payment_method", t,
		func(u ut.Translator) error {
			return u.Add("payment_method", "{0} must be a supported payment method", true)
		},
		func(u ut.Translator, fe govalidator.FieldError) string {
			msg, _ := u.T("payment_method", fe.Field())
			return msg
		},
	)
	return t
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	return translate(err, trans)
}

func translate(err error, t ut.Translator) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if t == nil {
				fields[fe.Field()] = fe.Error()
				continue
			}
			fields[fe.Field()] = fe.Translate(t)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindForm is Bind for url-encoded or multipart bodies.
func BindForm(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindWith(dst, binding.Form); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
