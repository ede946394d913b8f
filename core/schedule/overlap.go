package schedule

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConflictError is the expected outcome of a schedule change that would double book a teacher.
// Message is meant to be shown as is.
type ConflictError struct {
	Message     string
	ClassroomID string // conflicting classroom, if any
	Slot        Slot   // rejected slot
}

func (e *ConflictError) Error() string { return e.Message }

// IsConflict reports whether the cause of err is a *ConflictError.
func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func invalidRange(slot Slot) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf("invalid time range %s-%s", slot.Start, slot.End), Slot: slot}
}

// HasOverlap reports whether [start, end) on day intersects a slot of another classroom of teacherID.
// Slots of excludeClassroomID are ignored. An invalid or empty range always overlaps.
func HasOverlap(classrooms []Classroom, day Day, start, end, teacherID, excludeClassroomID string) bool {
	_, _, found := findOverlap(classrooms, Slot{Day: day, Start: start, End: end}, teacherID, excludeClassroomID)
	return found
}

// findOverlap returns the first slot of another classroom of teacherID overlapping target.
// found is true with a zero Classroom when target itself is invalid.
func findOverlap(classrooms []Classroom, target Slot, teacherID, excludeClassroomID string) (Classroom, Slot, bool) {
	start, end, ok := target.Range()
	if !ok || !target.Day.Valid() {
		return Classroom{}, Slot{}, true
	}
	for _, c := range classrooms {
		if c.ID == excludeClassroomID || c.TeacherID != teacherID {
			continue
		}
		for _, s := range c.Schedule {
			if s.Day != target.Day {
				continue
			}
			sStart, sEnd, valid := s.Range()
			// a malformed stored slot cannot block anything
			if !valid {
				continue
			}
			if start < sEnd && end > sStart {
				return c, s, true
			}
		}
	}
	return Classroom{}, Slot{}, false
}

// overlapsWithin reports whether target intersects one of slots, skipping index skip.
func overlapsWithin(slots []Slot, target Slot, skip int) (Slot, bool) {
	start, end, _ := target.Range()
	for i, s := range slots {
		if i == skip || s.Day != target.Day {
			continue
		}
		sStart, sEnd, valid := s.Range()
		if valid && start < sEnd && end > sStart {
			return s, true
		}
	}
	return Slot{}, false
}

// checkSlot returns a *ConflictError when target cannot be given to a classroom taught by teacherID.
// own are the classroom's other slots; skip is the index of the slot being replaced, -1 for none.
func checkSlot(classrooms []Classroom, teachers map[string]Teacher, target Slot, teacherID, classroomID string, own []Slot, skip int) error {
	c, s, found := findOverlap(classrooms, target, teacherID, classroomID)
	if found {
		if c.ID == "" {
			return invalidRange(target)
		}
		name := teacherID
		if t, ok := teachers[teacherID]; ok && t.FullName() != "" {
			name = t.FullName()
		}
		return &ConflictError{
			Message:     fmt.Sprintf("%s already teaches %s on %s %s-%s", name, c.Subject, s.Day, s.Start, s.End),
			ClassroomID: c.ID,
			Slot:        target,
		}
	}
	if s, found := overlapsWithin(own, target, skip); found {
		return &ConflictError{
			Message:     fmt.Sprintf("the classroom already has a lesson on %s %s-%s", s.Day, s.Start, s.End),
			ClassroomID: classroomID,
			Slot:        target,
		}
	}
	return nil
}

// Validate checks every slot of every classroom against the others: slots must be valid and no teacher may be double booked.
func Validate(classrooms []Classroom, teachers map[string]Teacher) error {
	for _, c := range classrooms {
		for i, s := range c.Schedule {
			if err := checkSlot(classrooms, teachers, s, c.TeacherID, c.ID, c.Schedule, i); err != nil {
				return err
			}
		}
	}
	return nil
}
