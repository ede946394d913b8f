package achievement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/CSMathematics/student-management-sub000/core"
)

// NewGrade contains the information needed to record a Grade.
type NewGrade struct {
	StudentID   string    `json:"studentId" validate:"required"`
	ClassroomID string    `json:"classroomId" validate:"required"`
	Subject     string    `json:"subject" validate:"required"`
	Type        GradeType `json:"type" validate:"required,gradetype"`
	Grade       Score     `json:"grade" validate:"required,score"`
	Date        time.Time `json:"date" validate:"required"`
	Feedback    string    `json:"feedback"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.StudentID = core.CleanString(ng.StudentID)
	ng.ClassroomID = core.CleanString(ng.ClassroomID)
	ng.Subject = core.CleanString(ng.Subject)
	ng.Type = GradeType(core.CleanString(string(ng.Type), true /* lower */))
	ng.Grade = Score(core.CleanString(string(ng.Grade)))
	ng.Feedback = core.CleanString(ng.Feedback)
	return validate.Struct(ng)
}

func (ng NewGrade) grade() Grade {
	return Grade{
		StudentID:   ng.StudentID,
		ClassroomID: ng.ClassroomID,
		Subject:     ng.Subject,
		Type:        ng.Type,
		Grade:       ng.Grade,
		Date:        ng.Date.UTC(),
		Feedback:    ng.Feedback,
	}
}

// NewAbsence contains the information needed to record an Absence.
type NewAbsence struct {
	StudentID   string        `json:"studentId" validate:"required"`
	ClassroomID string        `json:"classroomId" validate:"required"`
	Subject     string        `json:"subject" validate:"required"`
	Date        time.Time     `json:"date" validate:"required"`
	Status      AbsenceStatus `json:"status" validate:"required,absencestatus"`
}

func (na *NewAbsence) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanString(na.StudentID)
	na.ClassroomID = core.CleanString(na.ClassroomID)
	na.Subject = core.CleanString(na.Subject)
	na.Status = AbsenceStatus(core.CleanString(string(na.Status), true /* lower */))
	return validate.Struct(na)
}

func (na NewAbsence) absence() Absence {
	return Absence{
		StudentID:   na.StudentID,
		ClassroomID: na.ClassroomID,
		Subject:     na.Subject,
		Date:        na.Date.UTC(),
		Status:      na.Status,
	}
}

// NewSubmission contains the information needed to record a Submission; the file is uploaded separately.
type NewSubmission struct {
	StudentID    string `json:"studentId" form:"studentId" validate:"required"`
	AssignmentID string `json:"assignmentId" form:"assignmentId" validate:"required"`
	FileName     string `json:"fileName" form:"fileName" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	ns.FileName = core.CleanString(ns.FileName)
	return validate.Struct(ns)
}
