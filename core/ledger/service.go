package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/student"
)

var nowFunc = time.Now

// NewPayment contains the information needed to record a Payment.
// Month, when set, is the name of the calendar month the payment settles and fills in the notes.
type NewPayment struct {
	StudentID string    `json:"studentId" validate:"required"`
	Amount    float64   `json:"amount" validate:"gt=0"`
	Date      time.Time `json:"date"`
	Month     string    `json:"month"`
	Notes     string    `json:"notes"`
}

func (np *NewPayment) Validate(validate *validator.Validate, calendar Calendar) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.Month = core.CleanString(np.Month)
	np.Notes = core.CleanString(np.Notes)
	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.Month != "" {
		for _, m := range calendar {
			if normalizeNote(m.Name) == normalizeNote(np.Month) {
				return nil
			}
		}
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "unknown month " + np.Month})
	}
	return nil
}

type Service struct {
	store          core.Store
	logger         core.Logger
	calendar       Calendar
	defaultBaseFee float64
}

func NewService(store core.Store, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		store:          store,
		logger:         logger,
		calendar:       DefaultCalendar,
		defaultBaseFee: conf.Ledger.DefaultBaseFee,
	}
}

func (svc *Service) Calendar() Calendar { return svc.calendar }

// CurrentYear returns the school year in progress.
func (svc *Service) CurrentYear() SchoolYear { return SchoolYearOf(nowFunc().UTC()) }

func (svc *Service) account(ctx context.Context, studentID string) (Account, error) {
	rec, err := svc.store.Get(ctx, core.CollStudents, studentID)
	if err != nil {
		return Account{}, errors.Wrap(err, "fetching student "+studentID)
	}
	var std student.Student
	if err = rec.Decode(&std); err != nil {
		return Account{}, err
	}
	acc := Account{StudentID: std.ID, BaseFee: std.BaseFee, DiscountPercent: std.DiscountPercent}
	if acc.BaseFee == 0 {
		acc.BaseFee = svc.defaultBaseFee
	}
	return acc, nil
}

// Payments returns the payments of a student, oldest first.
func (svc *Service) Payments(ctx context.Context, studentID string) ([]Payment, error) {
	recs, err := svc.store.GetAll(ctx, core.CollPayments, core.Eq("studentId", studentID))
	if err != nil {
		return nil, errors.Wrap(err, "fetching payments")
	}
	payments, err := core.DecodeAll[Payment](recs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.Before(payments[j].Date) })
	return payments, nil
}

// Statement projects the account of a student for year.
func (svc *Service) Statement(ctx context.Context, studentID string, year SchoolYear) (Statement, error) {
	acc, err := svc.account(ctx, studentID)
	if err != nil {
		return Statement{}, err
	}
	payments, err := svc.Payments(ctx, studentID)
	if err != nil {
		return Statement{}, err
	}
	return Project(acc, svc.calendar, payments, year), nil
}

func (svc *Service) RecordPayment(ctx context.Context, np NewPayment) (Payment, error) {
	if _, err := svc.store.Get(ctx, core.CollStudents, np.StudentID); err != nil {
		if core.IsNotFound(err) {
			return Payment{}, core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: "unknown student"})
		}
		return Payment{}, errors.Wrap(err, "fetching student")
	}

	p := Payment{
		StudentID: np.StudentID,
		Amount:    np.Amount,
		Date:      np.Date.UTC(),
		Notes:     np.Notes,
	}
	if p.Date.IsZero() {
		p.Date = nowFunc().UTC()
	}
	if np.Month != "" {
		p.Notes = InstallmentNote(np.Month)
	}
	id, err := svc.store.Create(ctx, core.CollPayments, p)
	if err != nil {
		return Payment{}, errors.Wrap(err, "recording payment")
	}
	p.ID = id
	return p, nil
}

func (svc *Service) DeletePayment(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, core.CollPayments, id), "deleting payment")
}
