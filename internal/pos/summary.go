// Package pos stores POS receipts and the POS side of each shift summary.
package pos

import (
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/shopspring/decimal"
)

// SummarizeReceipts totals the receipts paid inside w by payment method.
// Unknown methods only count toward total sales. Expenses stay zero, the
// POS knows nothing about them; banking figures are derived from sales.
func SummarizeReceipts(w shiftwindow.Window, receipts []models.Receipt) models.ShiftTotals {
	var t models.ShiftTotals
	for _, r := range receipts {
		if !w.Contains(r.ReceiptAt) {
			continue
		}
		switch r.PaymentMethod {
		case models.PaymentCash:
			t.CashSales = t.CashSales.Add(r.Amount)
		case models.PaymentQR:
			t.QRSales = t.QRSales.Add(r.Amount)
		case models.PaymentGrab:
			t.GrabSales = t.GrabSales.Add(r.Amount)
		}
		t.TotalSales = t.TotalSales.Add(r.Amount)
	}
	return reconcile.DeriveBanking(t)
}

// mergeExpenses copies the expense side of stored totals into derived ones
// so a re-derive keeps what was entered by hand.
func mergeExpenses(derived, stored models.ShiftTotals) models.ShiftTotals {
	derived.ShoppingTotal = stored.ShoppingTotal
	derived.WageTotal = stored.WageTotal
	derived.OtherTotal = stored.OtherTotal
	derived.TotalExpenses = decimal.Zero
	derived.ExpectedCash = decimal.Zero
	derived.EstimatedNetBanked = decimal.Zero
	return reconcile.DeriveBanking(derived)
}
