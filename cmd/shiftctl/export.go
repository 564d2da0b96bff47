package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/spf13/cobra"
)

var (
	exportOut  string
	exportKind string
	exportDays int
	exportDate string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write ledger or reconciliation exports",
}

var exportLedgerCmd = &cobra.Command{
	Use:      "ledger",
	Short:    "Ledger history as CSV, or every kind as XLSX when --out ends in .xlsx",
	PreRunE:  needsServices,
	PostRunE: closeServices,
	RunE:     runExportLedger,
}

var exportReconciliationCmd = &cobra.Command{
	Use:      "reconciliation",
	Short:    "POS vs form comparison of one business date as CSV",
	PreRunE:  needsServices,
	PostRunE: closeServices,
	RunE:     runExportReconciliation,
}

// writeOutput runs write against --out, or stdout when it is empty or "-".
func writeOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if exportOut == "" || exportOut == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runExportLedger(cmd *cobra.Command, _ []string) error {
	if exportDays <= 0 || exportDays > ledger.MaxHistoryDays {
		return fmt.Errorf("--days must be between 1 and %d", ledger.MaxHistoryDays)
	}
	if strings.HasSuffix(strings.ToLower(exportOut), ".xlsx") {
		return writeOutput(cmd, writeLedgerWorkbook(cmd.Context()))
	}
	kind, err := ledger.ParseKind(exportKind)
	if err != nil {
		return err
	}
	entries, err := services.Ledger.History(cmd.Context(), kind, exportDays)
	if err != nil {
		return err
	}
	return writeOutput(cmd, func(w io.Writer) error {
		return ledger.WriteCSV(w, entries)
	})
}

// writeLedgerWorkbook puts one sheet per kind seen in the last --days dates.
func writeLedgerWorkbook(ctx context.Context) func(io.Writer) error {
	return func(w io.Writer) error {
		from := shiftwindow.LastCompleted(time.Now(), services.Location).AddDate(0, 0, -(exportDays - 1))
		kinds, err := services.Ledger.KindsBetween(ctx, from, exportDays)
		if err != nil {
			return err
		}
		history := make(map[ledger.Kind][]ledger.Entry, len(kinds))
		for _, k := range kinds {
			if history[k], err = services.Ledger.History(ctx, k, exportDays); err != nil {
				return err
			}
		}
		return ledger.WriteXLSX(w, kinds, history)
	}
}

func runExportReconciliation(cmd *cobra.Command, _ []string) error {
	date, err := shiftwindow.DateOrLast(exportDate, time.Now(), services.Location)
	if err != nil {
		return err
	}
	cmp, err := services.Reconcile.Compare(cmd.Context(), date)
	if err != nil {
		return err
	}
	return writeOutput(cmd, func(w io.Writer) error {
		return reconcile.WriteCSV(w, cmp)
	})
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	exportLedgerCmd.Flags().StringVar(&exportKind, "kind", string(ledger.KindRolls), "item kind (rolls, meat, drink:<brand>)")
	exportLedgerCmd.Flags().IntVar(&exportDays, "days", ledger.DefaultHistoryDays, "number of latest dates")

	exportReconciliationCmd.Flags().StringVar(&exportDate, "date", "", "business date YYYY-MM-DD (default: last completed shift)")

	exportCmd.AddCommand(exportLedgerCmd, exportReconciliationCmd)
}
