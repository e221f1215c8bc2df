package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gallerydiff/database"
	"gallerydiff/report"
	"gallerydiff/utils"
)

func newHistoryCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.OpenDatabase(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := database.ListRuns(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored runs")
				return nil
			}
			return report.WriteRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().StringVar(&dbPath, "database", utils.GetDefaultDatabasePath(), "SQLite database holding stored runs")
	return cmd
}

func newShowCommand() *cobra.Command {
	var dbPath string
	var format string

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print the changelist of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := report.ValidateFormat(format); err != nil {
				return usageError(cmd, err)
			}

			db, err := database.OpenDatabase(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			changelist, err := database.LoadChangelist(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), changelist, format)
		},
	}

	cmd.Flags().StringVar(&dbPath, "database", utils.GetDefaultDatabasePath(), "SQLite database holding stored runs")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON, "Output format: json, text or table")
	return cmd
}
