package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	maria = Teacher{ID: "t1", FirstName: "Maria", LastName: "Papadopoulou"}
	nikos = Teacher{ID: "t2", FirstName: "Nikos", LastName: "Georgiou"}
)

func teacherMap(teachers ...Teacher) map[string]Teacher {
	m := make(map[string]Teacher, len(teachers))
	for _, t := range teachers {
		m[t.ID] = t
	}
	return m
}

func classroom(id, teacherID, subject string, slots ...Slot) Classroom {
	return Classroom{ID: id, TeacherID: teacherID, Subject: subject, Schedule: slots}
}

func TestHasOverlap(t *testing.T) {
	classrooms := []Classroom{
		classroom("c1", "t1", "Math", Slot{Day: Monday, Start: "10:00", End: "11:00"}),
		classroom("c2", "t2", "Physics", Slot{Day: Monday, Start: "12:00", End: "13:00"}),
		classroom("c3", "t1", "Algebra", Slot{Day: Tuesday, Start: "9:00", End: "bad"}),
	}

	tests := []struct {
		name       string
		day        Day
		start, end string
		teacherID  string
		exclude    string
		want       bool
	}{
		{name: "partial overlap", day: Monday, start: "10:30", end: "11:30", teacherID: "t1", want: true},
		{name: "touching end", day: Monday, start: "11:00", end: "12:00", teacherID: "t1", want: false},
		{name: "touching start", day: Monday, start: "09:00", end: "10:00", teacherID: "t1", want: false},
		{name: "containing", day: Monday, start: "09:00", end: "12:00", teacherID: "t1", want: true},
		{name: "other day", day: Wednesday, start: "10:00", end: "11:00", teacherID: "t1", want: false},
		{name: "other teacher", day: Monday, start: "10:00", end: "11:00", teacherID: "t2", want: false},
		{name: "own classroom excluded", day: Monday, start: "10:30", end: "11:30", teacherID: "t1", exclude: "c1", want: false},
		{name: "malformed stored slot ignored", day: Tuesday, start: "09:00", end: "10:00", teacherID: "t1", want: false},
		{name: "empty range", day: Monday, start: "15:00", end: "15:00", teacherID: "t1", want: true},
		{name: "reversed range", day: Monday, start: "16:00", end: "15:00", teacherID: "t1", want: true},
		{name: "unparseable time", day: Monday, start: "noon", end: "13:00", teacherID: "t1", want: true},
		{name: "invalid day", day: "Sunday", start: "15:00", end: "16:00", teacherID: "t1", want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HasOverlap(classrooms, tc.day, tc.start, tc.end, tc.teacherID, tc.exclude)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckSlot(t *testing.T) {
	classrooms := []Classroom{
		classroom("c1", "t1", "Math", Slot{Day: Monday, Start: "10:00", End: "11:00"}),
	}
	teachers := teacherMap(maria)

	t.Run("teacher double booked", func(t *testing.T) {
		err := checkSlot(classrooms, teachers, Slot{Day: Monday, Start: "10:30", End: "11:30"}, "t1", "c9", nil, -1)
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		assert.Equal(t, "Maria Papadopoulou already teaches Math on Monday 10:00-11:00", err.Error())
		assert.Equal(t, "c1", err.(*ConflictError).ClassroomID)
	})

	t.Run("unknown teacher falls back to the id", func(t *testing.T) {
		err := checkSlot(classrooms, nil, Slot{Day: Monday, Start: "10:30", End: "11:30"}, "t1", "c9", nil, -1)
		require.Error(t, err)
		assert.Equal(t, "t1 already teaches Math on Monday 10:00-11:00", err.Error())
	})

	t.Run("classroom overlapping itself", func(t *testing.T) {
		own := []Slot{{Day: Friday, Start: "17:00", End: "18:00"}}
		err := checkSlot(classrooms, teachers, Slot{Day: Friday, Start: "17:30", End: "18:30"}, "t1", "c9", own, -1)
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		assert.Contains(t, err.Error(), "the classroom already has a lesson on Friday 17:00-18:00")
	})

	t.Run("replaced slot skipped", func(t *testing.T) {
		own := []Slot{{Day: Friday, Start: "17:00", End: "18:00"}}
		err := checkSlot(classrooms, teachers, Slot{Day: Friday, Start: "17:30", End: "18:30"}, "t1", "c9", own, 0)
		assert.NoError(t, err)
	})

	t.Run("invalid range", func(t *testing.T) {
		err := checkSlot(classrooms, teachers, Slot{Day: Friday, Start: "18:00", End: "17:00"}, "t1", "c9", nil, -1)
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		assert.Equal(t, "invalid time range 18:00-17:00", err.Error())
	})
}

func TestValidate(t *testing.T) {
	teachers := teacherMap(maria, nikos)

	ok := []Classroom{
		classroom("c1", "t1", "Math", Slot{Day: Monday, Start: "10:00", End: "11:00"}, Slot{Day: Monday, Start: "11:00", End: "12:00"}),
		classroom("c2", "t1", "Algebra", Slot{Day: Monday, Start: "12:00", End: "13:00"}),
		classroom("c3", "t2", "Physics", Slot{Day: Monday, Start: "10:00", End: "11:00"}),
	}
	assert.NoError(t, Validate(ok, teachers))

	clash := append(ok, classroom("c4", "t2", "Chemistry", Slot{Day: Monday, Start: "10:30", End: "11:00"}))
	err := Validate(clash, teachers)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "Nikos Georgiou already teaches")
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "9:05", want: 545},
		{in: "13:30", want: 810},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "1230", wantErr: true},
		{in: "12:3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClock(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
	assert.Equal(t, "09:05", Clock(545).String())
}

func TestParseDay(t *testing.T) {
	for in, want := range map[string]Day{"monday": Monday, "SAT": Saturday, " Wed ": Wednesday} {
		got, err := ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseDay("Sunday")
	assert.Error(t, err)
}
