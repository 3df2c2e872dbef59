// Command webdiner runs the lunch-ordering server and its maintenance jobs.
//
//	webdiner serve                 # HTTP (+ gRPC health when GRPC_PORT is set) and the scheduler
//	webdiner migrate               # apply pending migrations
//	webdiner migrate:rollback
//	webdiner migrate:status
//	webdiner seed                  # demo departments, accounts and vendors
//	webdiner route:list
//	webdiner remind --date 2026-10-19
//	webdiner report:export --date 2026-10-19
//	webdiner schedule:run          # scheduler only, no HTTP
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/webdiner/webdiner/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "webdiner",
	Short:         "Daily lunch ordering for the office",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(scheduleRunCmd)
}
