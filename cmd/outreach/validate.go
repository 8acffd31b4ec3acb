package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the contacts spreadsheet",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.closeLog()

	path := a.cfg.Paths.ContactsPath()
	report, err := a.ingester.LoadReport(cmd.Context(), path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "contacts file: %s\n", path)
	fmt.Fprintf(w, "rows: %d, accepted: %d, invalid email: %d, unknown company: %d\n",
		report.Rows, report.Accepted(), report.InvalidEmail, report.UnknownCompany)

	counts := report.Index.Counts()
	companies := make([]string, 0, len(counts))
	for c := range counts {
		companies = append(companies, c)
	}
	sort.Strings(companies)
	for _, c := range companies {
		fmt.Fprintf(w, "  %-8s %d\n", c, counts[c])
	}

	if missing := a.matcher.MissingCompanies(report.Index); len(missing) > 0 {
		a.log.Warn().Strs("companies", missing).Msg("no contacts found for companies")
		fmt.Fprintf(w, "warning: no contacts for %v\n", missing)
	}

	batches := a.planner.CreateBatches(report.Index, a.cfg.Outreach.CompanyQuota)
	batched := 0
	for _, b := range batches {
		batched += b.Size()
	}
	fmt.Fprintf(w, "batches: %d, contacts batched: %d\n", len(batches), batched)
	if batched < report.Accepted() {
		fmt.Fprintf(w, "warning: %d contacts are left out by the final short batch\n", report.Accepted()-batched)
	}
	return nil
}
