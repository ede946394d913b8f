package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/student"
)

// Seed stores data under path/id.
func Seed(t *testing.T, store core.Store, path, id string, data interface{}) {
	t.Helper()
	err := store.BatchWrite(context.Background(), []core.Operation{{Kind: core.OpCreate, Path: path, ID: id, Data: data}})
	if err != nil {
		t.Fatalf("Seed(%s/%s) failed: %v", path, id, err)
	}
}

func CreateStudent(t *testing.T, store core.Store, id, firstName, lastName, email string, createdAt ...time.Time) student.Student {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std := student.Student{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		CreatedAt: tstamp,
	}
	Seed(t, store, core.CollStudents, id, std)
	return std
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewValidator returns a validator with the core validations and their english translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}
