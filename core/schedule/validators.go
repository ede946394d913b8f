package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/CSMathematics/student-management-sub000/core"
)

var (
	dayTag  = "day"
	dayText = "{0} must be a day between Monday and Saturday"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dayTag, dayValidation)
	core.RegisterCustomTranslation(validate, translator, dayTag, dayText)
}

// Custom Validators

func dayValidation(fl validator.FieldLevel) bool {
	return Day(fl.Field().String()).Valid()
}
