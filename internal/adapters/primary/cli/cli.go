package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lorrc/ticket-insights/internal/adapters/secondary/spreadsheet"
	"github.com/lorrc/ticket-insights/internal/config"
	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/lorrc/ticket-insights/internal/core/ports"
	"github.com/lorrc/ticket-insights/internal/core/services"
	"github.com/lorrc/ticket-insights/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

// CLI is the insights command-line interface
type CLI struct {
	cfg      *config.Config
	out      io.Writer
	logger   *slog.Logger
	decoders map[domain.Format]ports.TableDecoder
	rootCmd  *cobra.Command

	profilePath string
	logLevel    string
}

// Options contain configuration for the CLI
type Options struct {
	Config *config.Config
	Output io.Writer
	Errors io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Errors == nil {
		opts.Errors = os.Stderr
	}
	if opts.Config == nil {
		opts.Config = config.FromEnv()
	}

	cli := &CLI{
		cfg: opts.Config,
		out: opts.Output,
		decoders: map[domain.Format]ports.TableDecoder{
			domain.FormatCSV:  spreadsheet.NewCSVDecoder(),
			domain.FormatXLSX: spreadsheet.NewXLSXDecoder(),
		},
	}
	cli.rootCmd = cli.newRootCmd(opts.Errors)
	return cli
}

// Execute runs the command line in args.
func (cli *CLI) Execute(ctx context.Context, args []string) error {
	cli.rootCmd.SetArgs(args)
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd(errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "insights",
		Short:         "Shape support-ticket spreadsheets into dashboard views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cli.logger = logging.NewLogger(logging.Config{
				Level:       cli.logLevel,
				Format:      "text",
				Output:      errOut,
				ServiceName: cli.cfg.App.Name,
				Environment: cli.cfg.App.Environment,
			})
		},
	}
	cmd.SetOut(cli.out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&cli.profilePath, "profile", cli.cfg.Analysis.ProfilePath, "Path to a YAML analysis profile")
	cmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newAnalyzeCmd(cli))
	cmd.AddCommand(newExportCmd(cli))
	cmd.AddCommand(newColumnsCmd(cli))
	cmd.AddCommand(newTokenCmd(cli))

	return cmd
}

// dashboards builds the shaping service for the selected profile. Exports encode
// directly, so the service gets no encoder.
func (cli *CLI) dashboards() (ports.DashboardService, error) {
	profile, err := config.LoadProfile(cli.profilePath)
	if err != nil {
		return nil, err
	}
	return services.NewDashboardService(profile, nil, nil, cli.logger), nil
}

// load decodes the spreadsheet at path.
func (cli *CLI) load(ctx context.Context, path string) (*domain.Dataset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	format := domain.FormatFromFilename(path)
	decoder, ok := cli.decoders[format]
	if !ok {
		return nil, fmt.Errorf("cannot read %q: expected a .csv or .xlsx file", path)
	}

	table, err := decoder.Decode(ctx, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	cli.logger.DebugContext(ctx, "spreadsheet loaded", "path", path, "rows", table.Len(), "columns", len(table.Columns()))

	return &domain.Dataset{
		ID:       services.DatasetID(format, content),
		Filename: filepath.Base(path),
		Format:   format,
		Table:    table,
	}, nil
}
