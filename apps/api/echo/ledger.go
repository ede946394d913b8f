package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
)

type ledgerApi struct {
	svc      *ledger.Service
	validate *validator.Validate
}

func registerLedgerAPI(g, dg *echo.Group, svc *ledger.Service, validate *validator.Validate) {
	api := ledgerApi{svc: svc, validate: validate}

	g.GET("/ledger/calendar", api.calendar)
	dg.GET("/ledger", api.statement)
	dg.GET("/payments", api.payments)
	g.POST("/payments", api.createPayment)
	g.DELETE("/payments/:id", api.destroyPayment)
}

// Handlers

func (api *ledgerApi) calendar(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Calendar())
}

// statement: `?year=2024` for the 2024-2025 school year; defaults to the current one.
func (api *ledgerApi) statement(ctx echo.Context) error {
	year := api.svc.CurrentYear()
	if y := ctx.QueryParam("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil || n < 1900 {
			return core.NewValidationError(nil, core.FieldError{Field: "year", Error: "year must be the starting year of a school year"})
		}
		year = ledger.SchoolYear(n)
	}

	st, err := api.svc.Statement(ctx.Request().Context(), ctx.Param("id"), year)
	if err != nil {
		return errors.Wrap(err, "projecting ledger")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *ledgerApi) payments(ctx echo.Context) error {
	payments, err := api.svc.Payments(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	if payments == nil {
		payments = []ledger.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *ledgerApi) createPayment(ctx echo.Context) error {
	var data ledger.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate, api.svc.Calendar()); err != nil {
		return err
	}

	payment, err := api.svc.RecordPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, payment)
}

func (api *ledgerApi) destroyPayment(ctx echo.Context) error {
	if err := api.svc.DeletePayment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
