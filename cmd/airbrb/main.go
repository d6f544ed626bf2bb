package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "airbrb",
		Short:         "Rental marketplace API and booking tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var envFiles []string
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	rootCmd.AddCommand(
		serveCmd(&envFiles),
		quoteCmd(),
		migrateCmd(&envFiles),
	)
	return rootCmd
}
