package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
	appfs "github.com/CSMathematics/student-management-sub000/fs"
	emailsvc "github.com/CSMathematics/student-management-sub000/services/email"
	logsvc "github.com/CSMathematics/student-management-sub000/services/logger"
	blobstore "github.com/CSMathematics/student-management-sub000/storage/blob"
	"github.com/CSMathematics/student-management-sub000/storage/database"
	firestorestore "github.com/CSMathematics/student-management-sub000/storage/docstore/firestore"
	inmemstore "github.com/CSMathematics/student-management-sub000/storage/docstore/inmem"
	pgstore "github.com/CSMathematics/student-management-sub000/storage/docstore/postgres"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	rollbarLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rollbarLogger.Enable(!conf.Debug)
	logger = rollbarLogger

	// set up store
	cli := commandLine{out: os.Stdout}
	var store core.Store

	switch conf.Store.Backend {
	case core.StorePostgres:
		errAndDie(database.CreateIfNotExist(conf))
		db, err := database.Open(conf)
		errAndDie(err)
		defer func() { _ = db.Close() }()

		cli.db = db.DB
		store = pgstore.New(db, database.DSN(conf), logger)

	case core.StoreFirestore:
		fsStore, err := firestorestore.New(context.Background(), conf, logger)
		errAndDie(err)
		defer func() { _ = fsStore.Close() }()
		store = fsStore

	default:
		store = inmemstore.New()
	}

	blobs, err := blobstore.NewLocalStore(conf)
	errAndDie(err)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	// start CLI
	cli.achievementSvc = achievement.NewService(store, blobs, mailSvc, logger, nil)
	cli.ledgerSvc = ledger.NewService(store, conf, logger)

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
