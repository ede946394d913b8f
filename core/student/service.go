package student

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/core"
)

var nowFunc = time.Now

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	std := Student{
		FirstName:       ns.FirstName,
		LastName:        ns.LastName,
		Email:           ns.Email,
		BaseFee:         ns.BaseFee,
		DiscountPercent: ns.DiscountPercent,
		CreatedAt:       nowFunc().UTC(),
	}
	id, err := svc.store.Create(ctx, core.CollStudents, std)
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	std.ID = id
	return std, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	rec, err := svc.store.Get(ctx, core.CollStudents, id)
	if err != nil {
		return Student{}, errors.Wrapf(err, "getting student %s", id)
	}
	var std Student
	if err = rec.Decode(&std); err != nil {
		return Student{}, err
	}
	return std, nil
}

// List returns every student sorted by last then first name.
func (svc *Service) List(ctx context.Context) ([]Student, error) {
	recs, err := svc.store.GetAll(ctx, core.CollStudents)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	students, err := core.DecodeAll[Student](recs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].LastName != students[j].LastName {
			return students[i].LastName < students[j].LastName
		}
		return students[i].FirstName < students[j].FirstName
	})
	return students, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	if fields := us.fields(); len(fields) > 0 {
		if err := svc.store.Update(ctx, core.CollStudents, id, fields); err != nil {
			return Student{}, errors.Wrapf(err, "updating student %s", id)
		}
	}
	return svc.Get(ctx, id)
}

