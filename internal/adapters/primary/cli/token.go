package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/lorrc/ticket-insights/internal/auth"
	"github.com/spf13/cobra"
)

type tokenCmd struct {
	cli      *CLI
	clientID string
	ttl      time.Duration
}

func newTokenCmd(cli *CLI) *cobra.Command {
	tc := &tokenCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE:  tc.run,
	}

	cmd.Flags().StringVar(&tc.clientID, "client", "", "Client identifier carried by the token")
	cmd.Flags().DurationVar(&tc.ttl, "ttl", cli.cfg.JWT.AccessTokenTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

func (tc *tokenCmd) run(cmd *cobra.Command, _ []string) error {
	if !tc.cli.cfg.JWT.Enabled() {
		return errors.New("JWT_SECRET is not set")
	}
	if tc.ttl <= 0 {
		return errors.New("--ttl must be positive")
	}

	tm := auth.NewTokenManager(tc.cli.cfg.JWT.Secret, tc.ttl, tc.cli.cfg.App.Name)
	token, err := tm.GenerateToken(tc.clientID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
