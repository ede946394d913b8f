package achievement

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/CSMathematics/student-management-sub000/core"
)

var (
	gradeTypeTag  = "gradetype"
	gradeTypeText = "{0} must be one of exam, project, participation, oral, homework or other"

	absenceStatusTag  = "absencestatus"
	absenceStatusText = "{0} must be absent or justified"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTypeTag, gradeTypeValidation)
	core.RegisterCustomTranslation(validate, translator, gradeTypeTag, gradeTypeText)

	_ = validate.RegisterValidation(absenceStatusTag, absenceStatusValidation)
	core.RegisterCustomTranslation(validate, translator, absenceStatusTag, absenceStatusText)
}

// Custom Validators

func gradeTypeValidation(fl validator.FieldLevel) bool {
	typ := GradeType(fl.Field().String())
	for _, t := range GradeTypes {
		if typ == t {
			return true
		}
	}
	return false
}

func absenceStatusValidation(fl validator.FieldLevel) bool {
	switch AbsenceStatus(fl.Field().String()) {
	case StatusAbsent, StatusJustified:
		return true
	}
	return false
}
