package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"salesdash/internal/dashboard"
	"salesdash/internal/engine"
	"salesdash/internal/export"
)

// load reads the dataset synchronously for one-shot commands.
func load(cmd *cobra.Command) (*engine.Table, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	return newLoader(cfg).Load(logger.WithContext(cmd.Context()))
}

func newChartCmd() *cobra.Command {
	var (
		local  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "chart <id>",
		Short: "Print the derived table of one chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := load(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			sel := selection()
			if local != "" {
				sel = sel.WithLocal(id, local)
			}
			panel, err := dashboard.New(nil).Build(base, id, sel)
			if err != nil {
				return err
			}
			if format == "table" {
				return printTable(cmd.OutOrStdout(), panel.Table)
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), f, panel.Table, panel.Spec.Title)
		},
	}
	cmd.Flags().StringVar(&local, "local", "", "Value of the chart's own selector")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv, xlsx or arrow")
	return cmd
}

func newKPIsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Print the headline KPIs for the current filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, err := load(cmd)
			if err != nil {
				return err
			}
			kpis, err := dashboard.New(nil).KPIs(base, selection())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, k := range kpis {
				fmt.Fprintf(w, "%s:\t%s\n", k.Label, k.Display)
			}
			return w.Flush()
		},
	}
}

func newOptionsCmd() *cobra.Command {
	var chart bool
	cmd := &cobra.Command{
		Use:   "options <column|chart id>",
		Short: "List selector values for a column, or for a chart with --chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := load(cmd)
			if err != nil {
				return err
			}
			d := dashboard.New(nil)
			var values []string
			if chart {
				values, err = d.ChartOptions(base, args[0], selection())
			} else {
				values, err = d.Options(base, selection(), args[0])
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(values)
		},
	}
	cmd.Flags().BoolVar(&chart, "chart", false, "Treat the argument as a chart id")
	return cmd
}

func printTable(w io.Writer, t *engine.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := t.Columns()
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)

	keys := make([][]string, len(cols))
	for i, c := range cols {
		k, err := t.Keys(c)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	for r := 0; r < t.Len(); r++ {
		for i := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, keys[i][r])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
