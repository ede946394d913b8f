package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"golang.org/x/term"
	"golang.org/x/text/language"

	"github.com/CSMathematics/student-management-sub000/core/ledger"
)

var isTerminalFunc = term.IsTerminal // mockable

// greek formats ledger amounts the way the school's statements print them.
var greek = language.Greek

func (cli *commandLine) evaluate(studentID string) error {
	ctx := context.Background()

	if studentID == "" {
		n, err := cli.achievementSvc.EvaluateAll(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "%d badge(s) awarded\n", n)
		return nil
	}

	awarded, err := cli.achievementSvc.Evaluate(ctx, studentID)
	if err != nil {
		return err
	}
	if len(awarded) == 0 {
		_, _ = fmt.Fprintln(cli.out, "no new badges")
	}
	for _, eb := range awarded {
		_, _ = fmt.Fprintf(cli.out, "awarded %s\n", eb.BadgeID)
	}
	return nil
}

func (cli *commandLine) recomputeXP(studentID string) error {
	xp, err := cli.achievementSvc.RecomputeTotalXP(context.Background(), studentID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "total XP: %d\n", xp)
	return nil
}

func (cli *commandLine) ledger(studentID string, year int) error {
	sy := cli.ledgerSvc.CurrentYear()
	if year != 0 {
		sy = ledger.SchoolYear(year)
	}

	st, err := cli.ledgerSvc.Statement(context.Background(), studentID, sy)
	if err != nil {
		return err
	}

	// piped output is for other programs
	if !isTerminalFunc(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(st), "encoding statement")
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintf(w, "school year %s\tmonthly fee %s\t\n\n", st.Year, ledger.FormatAmount(greek, st.MonthlyFee))
	_, _ = fmt.Fprintln(w, "month\tdue\tpaid\tbalance\tstatus\t")
	for _, ms := range st.Months {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			ms.Month.Name,
			ledger.FormatAmount(greek, ms.Due),
			ledger.FormatAmount(greek, ms.Paid),
			ledger.FormatAmount(greek, ms.Balance),
			ms.Status,
		)
	}
	_, _ = fmt.Fprintf(w, "total\t%s\t%s\t%s\t\t\n",
		ledger.FormatAmount(greek, st.TotalDue),
		ledger.FormatAmount(greek, st.TotalPaid),
		ledger.FormatAmount(greek, st.Balance),
	)
	if n := len(st.Unmatched); n > 0 {
		_, _ = fmt.Fprintf(w, "\n%d payment(s) name no month\t\n", n)
	}
	return errors.Wrap(w.Flush(), "printing statement")
}
