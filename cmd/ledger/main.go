// Command ledger records income and expenses and reports on them from the
// terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finledger/internal/cli"
	"finledger/internal/config"
	"finledger/internal/log"
)

var version = "dev"

// app is the state shared by the subcommands of one invocation.
type app struct {
	cfgFile  string
	logLevel string

	cfg     *config.Config
	logger  *log.Logger
	session *cli.Session
}

func (a *app) renderer(cmd *cobra.Command) cli.Renderer {
	return cli.Renderer{Out: cmd.OutOrStdout(), Prefix: a.cfg.CurrencyPrefix}
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") || os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = a.logLevel
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentCLI)
	if err != nil {
		return err
	}

	session, err := cli.OpenLedger(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.session = cfg, logger, session
	return nil
}

func (a *app) close() error {
	if a.session == nil {
		return nil
	}
	return a.session.Close()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "ledger",
		Short:             "Personal income and expense ledger",
		Long:              `ledger keeps a dated record of income and expenses and summarises it by month and category.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (env vars still take precedence)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(addCmd(a))
	root.AddCommand(deleteCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(summaryCmd(a))
	root.AddCommand(monthsCmd(a))
	root.AddCommand(monthCmd(a))
	root.AddCommand(searchCmd(a))
	root.AddCommand(versionCmd())
	return root
}

// execute runs one invocation and always releases the ledger afterwards.
func execute(ctx context.Context, args []string, out io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
