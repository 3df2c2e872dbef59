package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/internal/kernel"
)

var jobDate string

// targetDate parses --date, defaulting to today in the office time zone.
func targetDate(k *kernel.Kernel) (models.Date, error) {
	if jobDate == "" {
		return k.Services.Calendar.Today(time.Now()), nil
	}
	return models.ParseDate(jobDate)
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Remind everyone without an order for the date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		date, err := targetDate(k)
		if err != nil {
			return err
		}
		sent, err := k.Services.Reminders.Send(ctx, date)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d reminder(s) sent.\n", date, sent)
		return nil
	},
}

var reportExportCmd = &cobra.Command{
	Use:   "report:export",
	Short: "Write the day's summary and roster to the storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		date, err := targetDate(k)
		if err != nil {
			return err
		}
		res, err := k.Services.Reports.Export(ctx, date)
		if err != nil {
			return err
		}
		for _, f := range res.Files {
			fmt.Println(f)
		}
		return nil
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the scheduler without the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		s, err := k.Scheduler()
		if err != nil {
			return err
		}
		for _, id := range s.List() {
			fmt.Println("scheduled:", id)
		}
		s.Start(ctx)
		<-ctx.Done()
		s.Wait()
		return nil
	},
}

func init() {
	remindCmd.Flags().StringVar(&jobDate, "date", "", "order date (YYYY-MM-DD), default today")
	reportExportCmd.Flags().StringVar(&jobDate, "date", "", "order date (YYYY-MM-DD), default today")
}
