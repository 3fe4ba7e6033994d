package cli

import (
	"github.com/spf13/cobra"
)

func newColumnsCmd(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "columns FILE",
		Short: "List the columns of a spreadsheet and check the required ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := cli.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			dashboards, err := cli.dashboards()
			if err != nil {
				return err
			}

			return NewReporter(cmd.OutOrStdout()).Columns(dataset.Filename, dashboards.Columns(dataset.Table))
		},
	}
}
