package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type analyzeCmd struct {
	cli    *CLI
	sel    selectionFlags
	format string
}

func newAnalyzeCmd(cli *CLI) *cobra.Command {
	ac := &analyzeCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print KPIs and breakdowns for a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE:  ac.run,
	}

	ac.sel.register(cmd)
	cmd.Flags().StringVar(&ac.format, "format", "text", "Output format (text or json)")

	return cmd
}

func (ac *analyzeCmd) run(cmd *cobra.Command, args []string) error {
	if ac.format != "text" && ac.format != "json" {
		return fmt.Errorf("unsupported format %q: expected text or json", ac.format)
	}

	sel, err := ac.sel.selection()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	dataset, err := ac.cli.load(ctx, args[0])
	if err != nil {
		return err
	}

	dashboards, err := ac.cli.dashboards()
	if err != nil {
		return err
	}

	dash, err := dashboards.Build(ctx, dataset, sel)
	if err != nil {
		return err
	}

	if ac.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dash)
	}
	return NewReporter(cmd.OutOrStdout()).Dashboard(dataset.Filename, dash)
}
