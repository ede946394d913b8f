package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
	"github.com/CSMathematics/student-management-sub000/core/student"
	emailsvc "github.com/CSMathematics/student-management-sub000/services/email"
	logsvc "github.com/CSMathematics/student-management-sub000/services/logger"
	inmemstore "github.com/CSMathematics/student-management-sub000/storage/docstore/inmem"
	"github.com/CSMathematics/student-management-sub000/tests"
)

func setup(t *testing.T) (*commandLine, *inmemstore.Store, *bytes.Buffer) {
	t.Helper()

	conf := &core.Config{TestMode: true, Ledger: core.LedgerConfig{DefaultBaseFee: 80}}
	logger := logsvc.NewDiscardLogger()
	store := inmemstore.New()

	out := new(bytes.Buffer)
	cli := &commandLine{
		achievementSvc: achievement.NewService(store, nil, emailsvc.NewConsoleServiceMock(conf, logger), logger, nil),
		ledgerSvc:      ledger.NewService(store, conf, logger),
		out:            out,
	}
	return cli, store, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func (tt cliTest) run(t *testing.T, cli *commandLine, out *bytes.Buffer) {
	t.Helper()
	out.Reset()
	args := append([]string{"admin"}, tt.args...)

	err := cli.run(args)
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	if tt.wantOut != "" {
		assert.Contains(t, out.String(), tt.wantOut)
	}
}

func Test_commandLine_help(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "evaluate: no args", args: []string{"evaluate"}, wantErr: errHelp},
		{name: "evaluate: student and all", args: []string{"evaluate", "-student", "s1", "-all"}, wantErr: errHelp},
		{name: "recomputexp: no args", args: []string{"recomputexp"}, wantErr: errHelp},
		{name: "ledger: no args", args: []string{"ledger", "-year", "2024"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli, out)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, out := setup(t)

	t.Run("no database", func(t *testing.T) {
		cliTest{args: []string{"migrate", "up"}, wantErr: errNoDatabase}.run(t, cli, out)
	})

	cli.db = new(sql.DB)
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "payments_index", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli, out)
		})
	}
}

func Test_commandLine_evaluate(t *testing.T) {
	cli, store, out := setup(t)

	testutil.CreateStudent(t, store, "s1", "Eleni", "Vlachou", "")
	testutil.Seed(t, store, core.CollGrades, "g1", achievement.Grade{
		StudentID:   "s1",
		ClassroomID: "c1",
		Subject:     "Math",
		Type:        achievement.TypeExam,
		Grade:       "12",
		Date:        time.Now().UTC(),
	})

	firstSteps, _ := achievement.LookupBadge(achievement.FirstSteps)

	tests := []cliTest{
		{name: "awarded", args: []string{"evaluate", "-student", "s1"}, wantOut: "awarded " + achievement.FirstSteps},
		{name: "idempotent", args: []string{"evaluate", "-student", "s1"}, wantOut: "no new badges"},
		{name: "all", args: []string{"evaluate", "-all"}, wantOut: "0 badge(s) awarded"},
		{name: "recompute xp", args: []string{"recomputexp", "-student", "s1"}, wantOut: fmt.Sprintf("total XP: %d", firstSteps.XP)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, cli, out)
		})
	}

	t.Run("unknown student", func(t *testing.T) {
		err := cli.run([]string{"admin", "evaluate", "-student", "lol"})
		assert.True(t, core.IsNotFound(err), err)

		err = cli.run([]string{"admin", "recomputexp", "-student", "lol"})
		assert.True(t, core.IsNotFound(err), err)
	})
}

func Test_commandLine_ledger(t *testing.T) {
	cli, store, out := setup(t)

	testutil.Seed(t, store, core.CollStudents, "s1", student.Student{FirstName: "Eleni", LastName: "Vlachou", BaseFee: 80})
	testutil.Seed(t, store, core.CollPayments, "p1", ledger.Payment{
		StudentID: "s1",
		Amount:    80,
		Date:      testutil.Date(2024, 9, 10),
		Notes:     ledger.InstallmentNote("Σεπτέμβριος"),
	})

	t.Run("piped", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return false }
		out.Reset()

		require.NoError(t, cli.run([]string{"admin", "ledger", "-student", "s1", "-year", "2024"}))
		var st ledger.Statement
		require.NoError(t, json.Unmarshal(out.Bytes(), &st))
		assert.Equal(t, ledger.SchoolYear(2024), st.Year)
		assert.InDelta(t, 80.0, st.TotalPaid, 0.001)
	})

	t.Run("terminal", func(t *testing.T) {
		isTerminalFunc = func(int) bool { return true }
		out.Reset()

		require.NoError(t, cli.run([]string{"admin", "ledger", "-student", "s1", "-year", "2024"}))
		assert.Contains(t, out.String(), "school year 2024-2025")
		assert.Contains(t, out.String(), "Σεπτέμβριος")
		assert.Contains(t, out.String(), string(ledger.StatusPaid))
		assert.Contains(t, out.String(), string(ledger.StatusUnpaid))
	})

	t.Run("unknown student", func(t *testing.T) {
		err := cli.run([]string{"admin", "ledger", "-student", "lol"})
		assert.True(t, core.IsNotFound(err), err)
	})
}
