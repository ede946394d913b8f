package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	gridCfg  schedule.GridConfig
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, svc *schedule.Service, gridCfg schedule.GridConfig, validate *validator.Validate) {
	api := scheduleApi{svc: svc, gridCfg: gridCfg, validate: validate}

	sg := g.Group("/schedule")
	sg.GET("", api.retrieve)
	sg.PUT("", api.save)
	sg.GET("/overlap", api.overlap)
	sg.GET("/layout", api.layout)
}

type (
	ScheduleResponse struct {
		Classrooms []schedule.Classroom `json:"classrooms"`
		Teachers   []schedule.Teacher   `json:"teachers"`
	}

	SaveScheduleRequest struct {
		Classrooms []schedule.Classroom `json:"classrooms" validate:"dive"`
		// BaseIDs are the classrooms the client loaded; others stored meanwhile are kept.
		BaseIDs []string `json:"baseIds"`
	}

	SaveScheduleResponse struct {
		Changes int `json:"changes"`
	}

	OverlapQuery struct {
		Day                string `json:"day" query:"day" validate:"required"`
		Start              string `json:"start" query:"start" validate:"required,clock"`
		End                string `json:"end" query:"end" validate:"required,clock"`
		TeacherID          string `json:"teacherId" query:"teacherId" validate:"required"`
		ExcludeClassroomID string `json:"exclude" query:"exclude"`
	}

	OverlapResponse struct {
		Overlap bool `json:"overlap"`
	}

	LayoutResponse struct {
		Days        []schedule.Day       `json:"days"`
		Teachers    []schedule.Teacher   `json:"teachers"`
		Times       []string             `json:"times"`
		ColumnWidth float64              `json:"columnWidth"`
		RowHeight   float64              `json:"rowHeight"`
		Width       float64              `json:"width"`
		Height      float64              `json:"height"`
		Placements  []schedule.Placement `json:"placements"`
	}
)

func (q *OverlapQuery) Validate(validate *validator.Validate) (schedule.Day, error) {
	q.Day = core.CleanString(q.Day)
	q.Start = core.CleanString(q.Start)
	q.End = core.CleanString(q.End)
	q.TeacherID = core.CleanString(q.TeacherID)
	q.ExcludeClassroomID = core.CleanString(q.ExcludeClassroomID)
	if err := validate.Struct(q); err != nil {
		return "", err
	}
	day, err := schedule.ParseDay(q.Day)
	if err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: "day", Error: err.Error()})
	}
	return day, nil
}

func newLayoutResponse(grid *schedule.Grid, placements []schedule.Placement) LayoutResponse {
	times := make([]string, grid.Rows())
	for row := range times {
		times[row] = grid.RowTime(row).String()
	}
	if placements == nil {
		placements = []schedule.Placement{}
	}
	return LayoutResponse{
		Days:        grid.Days(),
		Teachers:    grid.Teachers(),
		Times:       times,
		ColumnWidth: grid.ColumnWidth(),
		RowHeight:   grid.Config().RowHeight,
		Width:       grid.Width(),
		Height:      grid.Height(),
		Placements:  placements,
	}
}

// Handlers

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	classrooms, teachers, err := api.svc.Load(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading schedule")
	}
	if classrooms == nil {
		classrooms = []schedule.Classroom{}
	}
	if teachers == nil {
		teachers = []schedule.Teacher{}
	}
	return ctx.JSON(http.StatusOK, ScheduleResponse{Classrooms: classrooms, Teachers: teachers})
}

func (api *scheduleApi) save(ctx echo.Context) error {
	var data SaveScheduleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveScheduleRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	changes, err := api.svc.SaveClassrooms(ctx.Request().Context(), data.Classrooms, data.BaseIDs...)
	if err != nil {
		return errors.Wrap(err, "saving schedule")
	}
	return ctx.JSON(http.StatusOK, SaveScheduleResponse{Changes: changes})
}

func (api *scheduleApi) overlap(ctx echo.Context) error {
	var query OverlapQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to OverlapQuery")
	}
	day, err := query.Validate(api.validate)
	if err != nil {
		return err
	}

	overlap, err := api.svc.CheckOverlap(ctx.Request().Context(), day, query.Start, query.End, query.TeacherID, query.ExcludeClassroomID)
	if err != nil {
		return errors.Wrap(err, "checking overlap")
	}
	return ctx.JSON(http.StatusOK, OverlapResponse{Overlap: overlap})
}

// layout: `?day=Mon,Tue&teacher=t1&teacher=t2&width=1280`
func (api *scheduleApi) layout(ctx echo.Context) error {
	var days []schedule.Day
	for _, d := range listParam(ctx, "day") {
		day, err := schedule.ParseDay(d)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "day", Error: err.Error()})
		}
		days = append(days, day)
	}

	var width float64
	if w := ctx.QueryParam("width"); w != "" {
		var err error
		if width, err = strconv.ParseFloat(w, 64); err != nil || width < 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "width", Error: "width must be a positive number"})
		}
	}

	grid, placements, err := api.svc.Layout(ctx.Request().Context(), api.gridCfg, days, listParam(ctx, "teacher"), width)
	if err != nil {
		return errors.Wrap(err, "laying out schedule")
	}
	return ctx.JSON(http.StatusOK, newLayoutResponse(grid, placements))
}
