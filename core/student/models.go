package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/CSMathematics/student-management-sub000/core"
)

// Student is the aggregate record of an enrolled student.
// TotalXP is a cache of the sum of the catalog XP of the student's earned badges.
type Student struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	TotalXP         int       `json:"totalXp"`
	BaseFee         float64   `json:"baseFee"`
	DiscountPercent float64   `json:"discountPercent"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	FirstName       string  `json:"firstName" validate:"required"`
	LastName        string  `json:"lastName" validate:"required"`
	Email           string  `json:"email" validate:"omitempty,email"`
	BaseFee         float64 `json:"baseFee" validate:"gte=0"`
	DiscountPercent float64 `json:"discountPercent" validate:"gte=0,lte=100"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Nil fields are left unchanged.
type UpdateStudent struct {
	FirstName       *string  `json:"firstName" validate:"omitempty,min=1"`
	LastName        *string  `json:"lastName" validate:"omitempty,min=1"`
	Email           *string  `json:"email" validate:"omitempty,email"`
	BaseFee         *float64 `json:"baseFee" validate:"omitempty,gte=0"`
	DiscountPercent *float64 `json:"discountPercent" validate:"omitempty,gte=0,lte=100"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower bool) {
		if s != nil {
			*s = core.CleanString(*s, lower)
		}
	}
	clean(us.FirstName, false)
	clean(us.LastName, false)
	clean(us.Email, true)
	return validate.Struct(us)
}

func (us UpdateStudent) fields() map[string]interface{} {
	fields := make(map[string]interface{}, 5)
	if us.FirstName != nil {
		fields["firstName"] = *us.FirstName
	}
	if us.LastName != nil {
		fields["lastName"] = *us.LastName
	}
	if us.Email != nil {
		fields["email"] = *us.Email
	}
	if us.BaseFee != nil {
		fields["baseFee"] = *us.BaseFee
	}
	if us.DiscountPercent != nil {
		fields["discountPercent"] = *us.DiscountPercent
	}
	return fields
}
