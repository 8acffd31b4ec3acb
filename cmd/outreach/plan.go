package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dannyswat/outreach/internal/email"
	"github.com/dannyswat/outreach/internal/model"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the send schedule without sending anything",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "output format: text, yaml or json")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	switch planFormat {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("unknown format %q", planFormat)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.closeLog()

	svc, err := a.newService(email.NewLogSender(a.log))
	if err != nil {
		return err
	}
	batches, err := svc.ScheduleEmails(cmd.Context())
	if err != nil {
		return err
	}

	return writePlan(cmd.OutOrStdout(), planFormat, batches, svc.GetScheduleSummary())
}

type planOutput struct {
	Batches  []batchSummary      `json:"batches" yaml:"batches"`
	Schedule []model.DaySchedule `json:"schedule" yaml:"schedule"`
}

type batchSummary struct {
	Number    int            `json:"number" yaml:"number"`
	Size      int            `json:"size" yaml:"size"`
	Companies map[string]int `json:"companies" yaml:"companies"`
}

func writePlan(w io.Writer, format string, batches []model.Batch, days []model.DaySchedule) error {
	out := planOutput{Schedule: days}
	for _, b := range batches {
		bs := batchSummary{Number: b.Number, Size: b.Size(), Companies: make(map[string]int)}
		for _, e := range b.Entries {
			bs.Companies[e.Company] = len(e.Contacts)
		}
		out.Batches = append(out.Batches, bs)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "%d batches\n", len(out.Batches))
	for _, b := range out.Batches {
		fmt.Fprintf(w, "  batch %d: %d contacts\n", b.Number, b.Size)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range days {
		fmt.Fprintf(tw, "\n%s (%d emails)\n", d.Date, len(d.Entries))
		for _, e := range d.Entries {
			fmt.Fprintf(tw, "  %s\t%s\tbatch %d\t%s\n", e.Time, e.Type, e.Batch, e.Recipient)
		}
	}
	return tw.Flush()
}
