package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

// registerStudentAPI adds the student routes; dg is the `/students/:id` group.
func registerStudentAPI(g, dg *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)

	// detail endpoints
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	if students == nil {
		students = []student.Student{}
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	ordering.SortStudents(students)
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	if std, err = api.svc.Update(ctx.Request().Context(), std.ID, data); err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}
