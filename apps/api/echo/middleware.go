package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/student"
)

var (
	ctxObjectKey        = "object"
	errStdNotFoundInCtx = errors.New("student object not found in echo.Context")
)

// studentMiddleware loads the student named by the `:id` path param into the context, or answers 404.
func studentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(ctxObjectKey, std)
			return next(ctx)
		}
	}
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	std, ok := ctx.Get(ctxObjectKey).(student.Student)
	if !ok {
		return student.Student{}, errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return std, nil
}
