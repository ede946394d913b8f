package echoapi

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/student"
	"github.com/CSMathematics/student-management-sub000/tests"
)

func Test_home(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	eleni := testutil.CreateStudent(t, app.store, "s1", "Eleni", "Vlachou", "eleni@test.gr", testutil.Date(2024, 9, 1))
	kostas := testutil.CreateStudent(t, app.store, "s2", "Kostas", "Andreou", "kostas@test.gr", testutil.Date(2024, 9, 3))
	anna := testutil.CreateStudent(t, app.store, "s3", "Anna", "Andreou", "", testutil.Date(2024, 9, 2))

	tests := []httpTest{
		{
			name: "by name", path: "/v1/students", wantCode: http.StatusOK,
			wantData: marchallObj(t, []student.Student{anna, kostas, eleni}),
		},
		{
			name: "ordering=-createdAt", path: "/v1/students?ordering=-createdAt", wantCode: http.StatusOK,
			wantData: marchallObj(t, []student.Student{kostas, anna, eleni}),
		},
		{
			name: "ordering=firstName,lastName", path: "/v1/students?ordering=firstName,lastName", wantCode: http.StatusOK,
			wantData: marchallObj(t, []student.Student{anna, eleni, kostas}),
		},
		{
			name: "unknown ordering ignored", path: "/v1/students?ordering=lol", wantCode: http.StatusOK,
			wantData: marchallObj(t, []student.Student{anna, kostas, eleni}),
		},
	}
	app.run(t, tests)
}

func Test_studentApi_create(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/students",
			body:     []byte(`{"firstName": "  "}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"firstName": "this field is required",
				"lastName":  "this field is required",
			}),
		},
		{
			name: "invalid email", method: http.MethodPost, path: "/v1/students",
			body:     []byte(`{"firstName": "Eleni", "lastName": "Vlachou", "email": "eleni"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "invalid discount", method: http.MethodPost, path: "/v1/students",
			body:     []byte(`{"firstName": "Eleni", "lastName": "Vlachou", "discountPercent": 120}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "malformed body", method: http.MethodPost, path: "/v1/students",
			body:     []byte(`{"firstName": `),
			wantCode: http.StatusBadRequest,
		},
	}
	app.run(t, tests)

	t.Run("created", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/students",
			[]byte(`{"firstName": " Eleni ", "lastName": "Vlachou", "email": "Eleni@Test.gr", "baseFee": 120}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std student.Student
		unmarchall(t, rec.Body, &std)
		assert.NotEmpty(t, std.ID)
		assert.Equal(t, "Eleni", std.FirstName)
		assert.Equal(t, "eleni@test.gr", std.Email)
		assert.Equal(t, 120.0, std.BaseFee)

		rec = app.do(http.MethodGet, "/v1/students/"+std.ID)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_studentApi_retrieve_update(t *testing.T) {
	app := setup(t)
	eleni := testutil.CreateStudent(t, app.store, "s1", "Eleni", "Vlachou", "eleni@test.gr", testutil.Date(2024, 9, 1))

	updated := eleni
	updated.FirstName = "Elena"
	updated.DiscountPercent = 10

	tests := []httpTest{
		{name: "retrieve", path: "/v1/students/s1", wantCode: http.StatusOK, wantData: marchallObj(t, eleni)},
		{
			name: "retrieve unknown", path: "/v1/students/lol", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "update unknown", method: http.MethodPatch, path: "/v1/students/lol",
			body: []byte(`{"firstName": "Elena"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "update invalid", method: http.MethodPatch, path: "/v1/students/s1",
			body:     []byte(`{"email": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "update", method: http.MethodPatch, path: "/v1/students/s1",
			body:     []byte(`{"firstName": "Elena", "discountPercent": 10}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, updated),
		},
	}
	app.run(t, tests)
}

func Test_appHTTPErrorHandler_shutdown(t *testing.T) {
	app := setup(t)
	app.server.app.GET("/boom", func(echo.Context) error {
		return core.NewShutdownError("integrity issue")
	})

	rec := app.do(http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal Server Error"}`, rec.Body.String())

	select {
	case <-app.server.ShutdownSignal():
	default:
		t.Error("shutdown was not signaled")
	}
}
