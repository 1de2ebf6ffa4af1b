package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/drewr95/pm/internal/logger"
	"github.com/drewr95/pm/internal/project"
)

type options struct {
	config string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "pm",
		Short:         "Generate C declarations, symbol files and register catalogs from parameter models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.config, "config", project.DefaultConfigName, "project file")

	root.AddCommand(
		newCCmd(opts),
		newSymCmd(opts),
		newTablesCmd(opts),
		newCheckCmd(opts),
		newCatalogCmd(opts),
		newGenerateCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatal(err)
	}
}
