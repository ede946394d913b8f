package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Day is a school day; only Monday to Saturday are scheduled.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// Days in canonical order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Index returns the position of d in Days, or -1.
func (d Day) Index() int {
	for i, day := range Days {
		if d == day {
			return i
		}
	}
	return -1
}

func (d Day) Valid() bool { return d.Index() >= 0 }

// ParseDay accepts full or three letter English day names in any case.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, day := range Days {
		name := strings.ToLower(string(day))
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return day, nil
		}
	}
	return "", errors.Errorf("invalid day %q", s)
}

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (or "H:MM") between 00:00 and 24:00.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, errors.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, errors.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, errors.Errorf("invalid time %q", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Slot is one weekly lesson of a classroom.
type Slot struct {
	Day   Day    `json:"day" validate:"required,day"`
	Start string `json:"startTime" validate:"required,clock"`
	End   string `json:"endTime" validate:"required,clock"`
}

// Range parses the slot times. ok is false for unparseable times or an empty range.
func (s Slot) Range() (start, end Clock, ok bool) {
	var err error
	if start, err = ParseClock(s.Start); err != nil {
		return 0, 0, false
	}
	if end, err = ParseClock(s.End); err != nil {
		return 0, 0, false
	}
	return start, end, end > start
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

type Classroom struct {
	ID          string `json:"id"`
	TeacherID   string `json:"teacherId" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Grade       string `json:"grade"`
	MaxStudents int    `json:"maxStudents" validate:"gte=0"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Schedule    []Slot `json:"schedule" validate:"dive"`
}

func (c Classroom) clone() Classroom {
	c.Schedule = append([]Slot(nil), c.Schedule...)
	return c
}

type Teacher struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (t Teacher) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}
