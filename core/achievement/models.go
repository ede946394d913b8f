package achievement

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/CSMathematics/student-management-sub000/core"
)

// Grade types
type GradeType string

const (
	TypeExam          GradeType = "exam"
	TypeProject       GradeType = "project"
	TypeParticipation GradeType = "participation"
	TypeOral          GradeType = "oral"
	TypeHomework      GradeType = "homework"
	TypeOther         GradeType = "other"
)

var GradeTypes = []GradeType{TypeExam, TypeProject, TypeParticipation, TypeOral, TypeHomework, TypeOther}

// Absence statuses
type AbsenceStatus string

const (
	StatusAbsent    AbsenceStatus = "absent"
	StatusJustified AbsenceStatus = "justified"
)

// Score is a grade value between 0 and 20.
// It is stored either as a JSON number or as a string using `.` or `,` as decimal separator.
type Score string

func (s Score) Value() (float64, bool) {
	return core.ParseDecimal(string(s))
}

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	*s = Score(b)
	return nil
}

// MarshalJSON writes numeric scores as JSON numbers in their canonical form ("05" is 5);
// anything else, like "12,5", stays a string.
func (s Score) MarshalJSON() ([]byte, error) {
	if v, err := strconv.ParseFloat(string(s), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return json.Marshal(string(s))
}

type Grade struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	ClassroomID string    `json:"classroomId"`
	Subject     string    `json:"subject"`
	Type        GradeType `json:"type"`
	Grade       Score     `json:"grade"`
	Date        time.Time `json:"date"`
	Feedback    string    `json:"feedback,omitempty"`
}

type Absence struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"studentId"`
	ClassroomID string        `json:"classroomId"`
	Subject     string        `json:"subject"`
	Date        time.Time     `json:"date"`
	Status      AbsenceStatus `json:"status"`
}

func (a Absence) IsJustified() bool {
	return a.Status == StatusJustified
}

type Submission struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	AssignmentID string    `json:"assignmentId"`
	SubmittedAt  time.Time `json:"submittedAt"`
	StoragePath  string    `json:"storagePath"`
}

type Assignment struct {
	ID          string    `json:"id"`
	ClassroomID string    `json:"classroomId"`
	DueDate     time.Time `json:"dueDate"`
	Type        string    `json:"type"`
}

// EarnedBadge is one award of a Badge to a student. Earned badges are never mutated except for SeenByUser.
type EarnedBadge struct {
	ID               string    `json:"id"`
	BadgeID          string    `json:"badgeId"`
	EarnedAt         time.Time `json:"earnedAt"`
	Details          string    `json:"details"`
	SourceDocumentID string    `json:"sourceDocumentId,omitempty"`
	SubjectKey       string    `json:"subjectKey,omitempty"`
	SeenByUser       bool      `json:"seenByUser"`
}
