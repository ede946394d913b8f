package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/schedule"
	"github.com/CSMathematics/student-management-sub000/tests"
)

func seedSchedule(t *testing.T, app testApp) schedule.Classroom {
	testutil.Seed(t, app.store, core.CollTeachers, "t1", schedule.Teacher{FirstName: "Maria", LastName: "Papadopoulou"})
	testutil.Seed(t, app.store, core.CollTeachers, "t2", schedule.Teacher{FirstName: "Nikos", LastName: "Georgiou"})
	math := schedule.Classroom{
		ID:        "c1",
		TeacherID: "t1",
		Subject:   "Math",
		Grade:     "Β Λυκείου",
		Schedule:  []schedule.Slot{{Day: schedule.Monday, Start: "10:00", End: "11:00"}},
	}
	testutil.Seed(t, app.store, core.CollClassrooms, math.ID, math)
	return math
}

func Test_scheduleApi_overlap(t *testing.T) {
	app := setup(t)
	seedSchedule(t, app)

	tests := []httpTest{
		{
			name: "overlap", path: "/v1/schedule/overlap?day=Monday&start=10:30&end=11:30&teacherId=t1",
			wantCode: http.StatusOK, wantData: marchallObj(t, OverlapResponse{Overlap: true}),
		},
		{
			name: "short day name", path: "/v1/schedule/overlap?day=mon&start=10:30&end=11:30&teacherId=t1",
			wantCode: http.StatusOK, wantData: marchallObj(t, OverlapResponse{Overlap: true}),
		},
		{
			name: "excluded classroom", path: "/v1/schedule/overlap?day=Monday&start=10:30&end=11:30&teacherId=t1&exclude=c1",
			wantCode: http.StatusOK, wantData: marchallObj(t, OverlapResponse{Overlap: false}),
		},
		{
			name: "back to back", path: "/v1/schedule/overlap?day=Monday&start=11:00&end=12:00&teacherId=t1",
			wantCode: http.StatusOK, wantData: marchallObj(t, OverlapResponse{Overlap: false}),
		},
		{
			name: "other teacher", path: "/v1/schedule/overlap?day=Monday&start=10:30&end=11:30&teacherId=t2",
			wantCode: http.StatusOK, wantData: marchallObj(t, OverlapResponse{Overlap: false}),
		},
		{
			name: "invalid time", path: "/v1/schedule/overlap?day=Monday&start=25:00&end=11:30&teacherId=t1",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"start": "start must be a time of day formatted as HH:MM"}),
		},
		{
			name: "invalid day", path: "/v1/schedule/overlap?day=Sunday&start=10:30&end=11:30&teacherId=t1",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"day": `invalid day "sunday"`}),
		},
		{
			name: "teacher required", path: "/v1/schedule/overlap?day=Monday&start=10:30&end=11:30",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacherId": "this field is required"}),
		},
	}
	app.run(t, tests)
}

func Test_scheduleApi_save(t *testing.T) {
	app := setup(t)
	math := seedSchedule(t, app)

	physics := schedule.Classroom{
		TeacherID: "t1",
		Subject:   "Physics",
		Schedule:  []schedule.Slot{{Day: schedule.Monday, Start: "10:30", End: "12:00"}},
	}

	t.Run("invalid slot", func(t *testing.T) {
		bad := physics
		bad.Schedule = []schedule.Slot{{Day: "Sunday", Start: "10:00", End: "11:00"}}
		rec := app.do(http.MethodPut, "/v1/schedule", marchallObj(t, SaveScheduleRequest{Classrooms: []schedule.Classroom{math, bad}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"day": "day must be a day between Monday and Saturday"}`, rec.Body.String())
	})

	t.Run("conflict", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/v1/schedule", marchallObj(t, SaveScheduleRequest{Classrooms: []schedule.Classroom{math, physics}}))
		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp conflictResponse
		unmarchall(t, rec.Body, &resp)
		assert.Contains(t, resp.Error, "Maria Papadopoulou")
		assert.Equal(t, schedule.Monday, resp.Slot.Day)

		rec = app.do(http.MethodGet, "/v1/schedule")
		var sched ScheduleResponse
		unmarchall(t, rec.Body, &sched)
		assert.Len(t, sched.Classrooms, 1, "nothing is written on conflict")
	})

	t.Run("saved", func(t *testing.T) {
		physics.TeacherID = "t2"
		rec := app.do(http.MethodPut, "/v1/schedule", marchallObj(t, SaveScheduleRequest{Classrooms: []schedule.Classroom{math, physics}}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"changes": 1}`, rec.Body.String())

		rec = app.do(http.MethodGet, "/v1/schedule")
		require.Equal(t, http.StatusOK, rec.Code)
		var sched ScheduleResponse
		unmarchall(t, rec.Body, &sched)
		assert.Len(t, sched.Classrooms, 2)
		assert.Len(t, sched.Teachers, 2)
	})

	t.Run("classroom stored since load kept", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/v1/schedule", marchallObj(t, SaveScheduleRequest{
			Classrooms: []schedule.Classroom{math},
			BaseIDs:    []string{math.ID},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"changes": 0}`, rec.Body.String())
	})

	t.Run("classroom removed", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/v1/schedule", marchallObj(t, SaveScheduleRequest{Classrooms: []schedule.Classroom{math}}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"changes": 1}`, rec.Body.String())
	})
}

func Test_scheduleApi_layout(t *testing.T) {
	app := setup(t)
	seedSchedule(t, app)

	t.Run("filtered", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/schedule/layout?day=Monday&teacher=t1&width=160")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LayoutResponse
		unmarchall(t, rec.Body, &resp)
		assert.Equal(t, []schedule.Day{schedule.Monday}, resp.Days)
		require.Len(t, resp.Teachers, 1)
		assert.Equal(t, "t1", resp.Teachers[0].ID)
		assert.Len(t, resp.Times, 28)
		assert.Equal(t, "08:00", resp.Times[0])
		require.Len(t, resp.Placements, 1)
		assert.Equal(t, "c1", resp.Placements[0].ClassroomID)
		assert.Equal(t, schedule.Box{Left: 0, Top: 96, Width: 100, Height: 48}, resp.Placements[0].Box)
	})

	t.Run("every day and teacher", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/schedule/layout")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LayoutResponse
		unmarchall(t, rec.Body, &resp)
		assert.Equal(t, schedule.Days, resp.Days)
		assert.Len(t, resp.Teachers, 2)
		assert.Len(t, resp.Placements, 1)
	})

	t.Run("invalid day", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/schedule/layout?day=Mon,Funday")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid width", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/schedule/layout?width=wide")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"width": "width must be a positive number"}`, rec.Body.String())
	})
}
