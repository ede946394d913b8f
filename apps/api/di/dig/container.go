package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/CSMathematics/student-management-sub000/apps/api/echo"
	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
	"github.com/CSMathematics/student-management-sub000/core/schedule"
	"github.com/CSMathematics/student-management-sub000/core/student"
	cronsvc "github.com/CSMathematics/student-management-sub000/services/cron"
	emailsvc "github.com/CSMathematics/student-management-sub000/services/email"
	logsvc "github.com/CSMathematics/student-management-sub000/services/logger"
	metricsvc "github.com/CSMathematics/student-management-sub000/services/metrics"
	blobstore "github.com/CSMathematics/student-management-sub000/storage/blob"
	"github.com/CSMathematics/student-management-sub000/storage/database"
	firestorestore "github.com/CSMathematics/student-management-sub000/storage/docstore/firestore"
	inmemstore "github.com/CSMathematics/student-management-sub000/storage/docstore/inmem"
	pgstore "github.com/CSMathematics/student-management-sub000/storage/docstore/postgres"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// StoreCloser releases the document store and its connections.
type StoreCloser func() error

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStore opens the document store selected by `store.backend`.
func newStore(conf *core.Config, loggerParam DBLoggerParam) (core.Store, StoreCloser) {
	logger := loggerParam.Logger

	switch conf.Store.Backend {
	case core.StorePostgres:
		setUp := func() (*pgstore.Store, StoreCloser, error) {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, nil, err
			}

			db, err := database.Open(conf)
			if err != nil {
				return nil, nil, err
			}

			if err = database.Migrate(db.DB, "up"); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
			store := pgstore.New(db, database.DSN(conf), logger)
			return store, func() error {
				if err := store.Close(); err != nil {
					logger.Error(fmt.Sprintf("closing listener: %v", err), err)
				}
				return db.Close()
			}, nil
		}

		store, closer, err := setUp()
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		return store, closer

	case core.StoreFirestore:
		store, err := firestorestore.New(context.Background(), conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up firestore: %v", err), err)
		}
		return store, store.Close

	default:
		if conf.Store.Backend != core.StoreMemory {
			logger.Fatal(fmt.Sprintf("unknown store backend %q", conf.Store.Backend))
		}
		logger.Warn("using the in-memory store: data is lost on shutdown")
		return inmemstore.New(), func() error { return nil }
	}
}

func newBlobStore(conf *core.Config, logger core.Logger) (*blobstore.LocalStore, core.BlobStore) {
	blobs, err := blobstore.NewLocalStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up blob store: %v", err), err)
	}
	return blobs, blobs
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newAchievementService(
	store core.Store,
	blobs core.BlobStore,
	mailSvc core.EmailService,
	logger core.Logger,
	metrics *metricsvc.Recorder,
) *achievement.Service {
	return achievement.NewService(store, blobs, mailSvc, logger, metrics)
}

func newScheduleService(store core.Store, logger core.Logger, metrics *metricsvc.Recorder) *schedule.Service {
	return schedule.NewService(store, logger, metrics)
}

func newScheduler(conf *core.Config, svc *achievement.Service, logger core.Logger) *cronsvc.Scheduler {
	scheduler, err := cronsvc.NewScheduler(conf, svc, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cron: %v", err), err)
	}
	return scheduler
}

func newValidate() *validator.Validate {
	return validator.New()
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type serverParams struct {
	dig.In

	Conf           *core.Config
	Logger         core.Logger
	StudentSvc     *student.Service
	AchievementSvc *achievement.Service
	ScheduleSvc    *schedule.Service
	LedgerSvc      *ledger.Service
	Blobs          *blobstore.LocalStore
	Metrics        *metricsvc.Recorder
	Validate       *validator.Validate
	Translator     ut.Translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           p.Conf,
		Logger:         p.Logger,
		StudentSvc:     p.StudentSvc,
		AchievementSvc: p.AchievementSvc,
		ScheduleSvc:    p.ScheduleSvc,
		LedgerSvc:      p.LedgerSvc,
		Blobs:          p.Blobs,
		Metrics:        p.Metrics,
		Validate:       p.Validate,
		Translator:     p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newBlobStore))
	must(c.Provide(newEmailService))
	must(c.Provide(metricsvc.NewRecorder))
	must(c.Provide(student.NewService))
	must(c.Provide(newAchievementService))
	must(c.Provide(newScheduleService))
	must(c.Provide(ledger.NewService))
	must(c.Provide(newScheduler))
	must(c.Provide(newValidate))
	must(c.Provide(newTranslator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
