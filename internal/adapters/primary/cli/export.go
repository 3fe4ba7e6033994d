package cli

import (
	"fmt"
	"os"

	"github.com/lorrc/ticket-insights/internal/adapters/secondary/spreadsheet"
	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/spf13/cobra"
)

type exportCmd struct {
	cli *CLI
	sel selectionFlags
	out string
}

func newExportCmd(cli *CLI) *cobra.Command {
	ec := &exportCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the filtered rows of a spreadsheet to CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE:  ec.run,
	}

	ec.sel.register(cmd)
	cmd.Flags().StringVar(&ec.out, "out", "dados_filtrados.csv", "Output file; the extension picks the format")

	return cmd
}

func encoderFor(path string) (ports.TableEncoder, error) {
	switch domain.FormatFromFilename(path) {
	case domain.FormatCSV:
		return spreadsheet.NewCSVEncoder(), nil
	case domain.FormatXLSX:
		return spreadsheet.NewXLSXEncoder(), nil
	default:
		return nil, fmt.Errorf("cannot write %q: expected a .csv or .xlsx file", path)
	}
}

func (ec *exportCmd) run(cmd *cobra.Command, args []string) (err error) {
	enc, err := encoderFor(ec.out)
	if err != nil {
		return err
	}

	sel, err := ec.sel.selection()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	dataset, err := ec.cli.load(ctx, args[0])
	if err != nil {
		return err
	}

	dashboards, err := ec.cli.dashboards()
	if err != nil {
		return err
	}

	// Filter before creating the file so a bad selection leaves nothing behind.
	filtered, err := dashboards.Apply(ctx, dataset.Table, sel)
	if err != nil {
		return err
	}

	f, err := os.Create(ec.out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", ec.out, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", ec.out, cerr)
		}
	}()

	if err := enc.Encode(f, filtered); err != nil {
		return fmt.Errorf("writing %s: %w", ec.out, err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d of %d rows to %s\n", filtered.Len(), dataset.Table.Len(), ec.out)
	return err
}
