package echoapi

import (
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/CSMathematics/student-management-sub000/core/student"
)

var orderingParam = "ordering"

// listParam collects the values of a repeated and/or comma separated query parameter.
func listParam(ctx echo.Context, name string) []string {
	var vals []string
	for _, raw := range ctx.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

type orderingField struct {
	Field     string
	Ascending bool
}

// Ordering is bound from `?ordering=lastName,-totalXp`; a leading "-" sorts descending.
type Ordering struct {
	Orderings []orderingField
}

func (ord *Ordering) Bind(ctx echo.Context) {
	for _, field := range listParam(ctx, orderingParam) {
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, orderingField{Field: field, Ascending: !descending})
	}
}

// studentLess compares a and b on a single field; ok is false for unknown fields.
func studentLess(field string, a, b student.Student) (less, equal, ok bool) {
	switch field {
	case "firstName":
		return a.FirstName < b.FirstName, a.FirstName == b.FirstName, true
	case "lastName":
		return a.LastName < b.LastName, a.LastName == b.LastName, true
	case "email":
		return a.Email < b.Email, a.Email == b.Email, true
	case "totalXp":
		return a.TotalXP < b.TotalXP, a.TotalXP == b.TotalXP, true
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt), true
	}
	return false, true, false
}

// SortStudents applies the orderings in priority order; unknown fields are ignored.
func (ord *Ordering) SortStudents(students []student.Student) {
	if len(ord.Orderings) == 0 {
		return
	}
	sort.SliceStable(students, func(i, j int) bool {
		for _, o := range ord.Orderings {
			less, equal, ok := studentLess(o.Field, students[i], students[j])
			if !ok || equal {
				continue
			}
			if o.Ascending {
				return less
			}
			return !less
		}
		return false
	})
}
