package main

import (
	"github.com/pkg/errors"

	"github.com/CSMathematics/student-management-sub000/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

var errNoDatabase = errors.New("migrations need the postgres store backend")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
