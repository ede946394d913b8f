package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/CSMathematics/student-management-sub000/core/achievement"
	"github.com/CSMathematics/student-management-sub000/core/ledger"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db             *sql.DB // nil unless the postgres store is used
	achievementSvc *achievement.Service
	ledgerSvc      *ledger.Service
	out            io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]              - run a goose command (up, down, status, redo, up-to VERSION...)")
	fmt.Println("  evaluate -student ID | -all         - evaluate the badges of one or every student")
	fmt.Println("  recomputexp -student ID             - recompute a student's total XP from the earned badges")
	fmt.Println("  ledger -student ID [-year YYYY]     - print a student's tuition statement for a school year")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	evaluateCmd := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	evaluateStudent := evaluateCmd.String("student", "", "The student's id.")
	evaluateAll := evaluateCmd.Bool("all", false, "Evaluate every student.")

	recomputeCmd := flag.NewFlagSet("recomputexp", flag.ContinueOnError)
	recomputeStudent := recomputeCmd.String("student", "", "The student's id.")

	ledgerCmd := flag.NewFlagSet("ledger", flag.ContinueOnError)
	ledgerStudent := ledgerCmd.String("student", "", "The student's id.")
	ledgerYear := ledgerCmd.Int("year", 0, "The year the school year starts in. Defaults to the current one.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "evaluate":
		if err := evaluateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*evaluateStudent == "") == !*evaluateAll {
			evaluateCmd.Usage()
			return errHelp
		}
		return cli.evaluate(*evaluateStudent)

	case "recomputexp":
		if err := recomputeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recomputeStudent == "" {
			recomputeCmd.Usage()
			return errHelp
		}
		return cli.recomputeXP(*recomputeStudent)

	case "ledger":
		if err := ledgerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *ledgerStudent == "" {
			ledgerCmd.Usage()
			return errHelp
		}
		return cli.ledger(*ledgerStudent, *ledgerYear)

	default:
		cli.printUsage()
		return errHelp
	}
}
