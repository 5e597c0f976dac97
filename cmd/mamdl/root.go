package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mamdl",
		Short:         "MyAnonaMouse downloader helper",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newAutoCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newGrabCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newTransferCommand())

	return rootCmd
}
