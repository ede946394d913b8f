package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/log"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
	"github.com/CSMathematics/student-management-sub000/core/schedule"
	"github.com/CSMathematics/student-management-sub000/core/student"
	metricsvc "github.com/CSMathematics/student-management-sub000/services/metrics"
	blobstore "github.com/CSMathematics/student-management-sub000/storage/blob"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		StudentSvc     *student.Service
		AchievementSvc *achievement.Service
		ScheduleSvc    *schedule.Service
		LedgerSvc      *ledger.Service
		Blobs          *blobstore.LocalStore
		Metrics        *metricsvc.Recorder // optional
		Validate       *validator.Validate
		Translator     ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Blob.MaxFileSize > 0 {
		s.app.Use(middleware.BodyLimit(bodyLimit(conf.Blob.MaxFileSize)))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}
	if s.deps.Blobs != nil {
		registerFileAPI(s.app.Group(conf.Blob.BaseURL), s.deps.Blobs)
	}

	v1 := s.app.Group("/v1")
	dg := v1.Group("/students/:id", studentMiddleware(s.deps.StudentSvc))

	registerStudentAPI(v1, dg, s.deps.StudentSvc, s.deps.Validate)
	registerAchievementAPI(v1, dg, s.deps.AchievementSvc, s.deps.Validate)
	registerLedgerAPI(v1, dg, s.deps.LedgerSvc, s.deps.Validate)
	registerScheduleAPI(v1, s.deps.ScheduleSvc, schedule.NewGridConfig(conf.Schedule), s.deps.Validate)
}

// Start blocks until the server stops; startup failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error              { return s.errors }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// bodyLimit leaves room for the multipart envelope around an upload of maxFileSize bytes.
func bodyLimit(maxFileSize int64) string {
	return bytes.Format(maxFileSize + 1<<20)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Student Management API!")
}
