package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
	"github.com/CSMathematics/student-management-sub000/core/schedule"
	"github.com/CSMathematics/student-management-sub000/core/student"
	emailsvc "github.com/CSMathematics/student-management-sub000/services/email"
	logsvc "github.com/CSMathematics/student-management-sub000/services/logger"
	metricsvc "github.com/CSMathematics/student-management-sub000/services/metrics"
	blobstore "github.com/CSMathematics/student-management-sub000/storage/blob"
	inmemstore "github.com/CSMathematics/student-management-sub000/storage/docstore/inmem"
	"github.com/CSMathematics/student-management-sub000/tests"
)

type testApp struct {
	server  *Server
	store   *inmemstore.Store
	metrics *metricsvc.Recorder
}

func setup(t *testing.T) testApp {
	t.Helper()

	conf := &core.Config{
		TestMode: true,
		Server:   core.ServerConfig{DisableReqLogs: true},
		Blob:     core.BlobConfig{Root: t.TempDir(), BaseURL: "/files", MaxFileSize: 1 << 20},
		Schedule: core.ScheduleConfig{StartHour: 8, EndHour: 22, SlotMinutes: 30, RowHeight: 24, TimeAxisWidth: 60, MinColumnWidth: 40},
		Ledger:   core.LedgerConfig{DefaultBaseFee: 80},
	}
	logger := logsvc.NewDiscardLogger()

	// set up stores
	store := inmemstore.New()
	blobs, err := blobstore.NewLocalStore(conf)
	require.NoError(t, err)

	// set up services
	validate, translator := testutil.NewValidator()
	achievement.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)

	metrics := metricsvc.NewRecorder()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		StudentSvc:     student.NewService(store),
		AchievementSvc: achievement.NewService(store, blobs, mailSvc, logger, metrics),
		ScheduleSvc:    schedule.NewService(store, logger, metrics),
		LedgerSvc:      ledger.NewService(store, conf, logger),
		Blobs:          blobs,
		Metrics:        metrics,
		Validate:       validate,
		Translator:     translator,
	})
	t.Cleanup(func() { _ = server.Close() })

	return testApp{server: server, store: store, metrics: metrics}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func (app testApp) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarchall(t *testing.T, body io.Reader, v interface{}) {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		t.Fatalf("unmarchall(): %v", err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
