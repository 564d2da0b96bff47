package main

import (
	"fmt"
	"time"

	"shiftcost-backend/internal/config"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/spf13/cobra"
)

var windowDate string

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Show the trading window of a business date",
	RunE:  runWindow,
}

func runWindow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	d, err := shiftwindow.DateOrLast(windowDate, time.Now(), loc)
	if err != nil {
		return err
	}
	w := shiftwindow.Resolve(d, loc)
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s -> %s (%s)\n",
		w.Label(), w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), w.Duration())
	return nil
}

func init() {
	windowCmd.Flags().StringVar(&windowDate, "date", "", "business date YYYY-MM-DD (default: last completed shift)")
}
