package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/level"
)

var submissionFileField = "file"

type achievementApi struct {
	svc      *achievement.Service
	validate *validator.Validate
}

func registerAchievementAPI(g, dg *echo.Group, svc *achievement.Service, validate *validator.Validate) {
	api := achievementApi{svc: svc, validate: validate}

	g.GET("/badges", api.queryBadges)
	g.GET("/levels", api.queryLevels)

	dg.GET("/level", api.progress)
	dg.POST("/evaluate", api.evaluate)
	dg.GET("/badges", api.earned)
	dg.POST("/badges/seen", api.markSeen)
	dg.POST("/xp/recompute", api.recomputeXP)

	// records triggering an evaluation
	g.POST("/grades", api.createGrade)
	g.POST("/absences", api.createAbsence)
	g.POST("/submissions", api.createSubmission)
}

type (
	EvaluateResponse struct {
		Awarded []achievement.EarnedBadge `json:"awarded"`
	}

	MarkSeenRequest struct {
		IDs []string `json:"ids"`
	}

	XPResponse struct {
		TotalXP int `json:"totalXp"`
	}
)

// Handlers

func (api *achievementApi) queryBadges(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, achievement.Catalog)
}

func (api *achievementApi) queryLevels(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, level.Default)
}

func (api *achievementApi) progress(ctx echo.Context) error {
	progress, err := api.svc.Progress(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *achievementApi) evaluate(ctx echo.Context) error {
	earned, err := api.svc.Evaluate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if earned == nil {
		earned = []achievement.EarnedBadge{}
	}
	return ctx.JSON(http.StatusOK, EvaluateResponse{Awarded: earned})
}

func (api *achievementApi) earned(ctx echo.Context) error {
	views, err := api.svc.Earned(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing earned badges")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *achievementApi) markSeen(ctx echo.Context) error {
	var data MarkSeenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkSeenRequest")
	}
	if err := api.svc.MarkSeen(ctx.Request().Context(), ctx.Param("id"), data.IDs...); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *achievementApi) recomputeXP(ctx echo.Context) error {
	total, err := api.svc.RecomputeTotalXP(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, XPResponse{TotalXP: total})
}

func (api *achievementApi) createGrade(ctx echo.Context) error {
	var data achievement.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.svc.RecordGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *achievementApi) createAbsence(ctx echo.Context) error {
	var data achievement.NewAbsence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAbsence")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	absence, err := api.svc.RecordAbsence(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording absence")
	}
	return ctx.JSON(http.StatusCreated, absence)
}

func (api *achievementApi) createSubmission(ctx echo.Context) error {
	var data achievement.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	fh, err := ctx.FormFile(submissionFileField)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: submissionFileField, Error: "file is a required field"})
	}
	if data.FileName == "" {
		data.FileName = fh.Filename
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	sub, err := api.svc.RecordSubmission(ctx.Request().Context(), data, file)
	if err != nil {
		return errors.Wrap(err, "recording submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}
