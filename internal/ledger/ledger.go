package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"shiftcost-backend/internal/notify"
	"shiftcost-backend/internal/shiftwindow"
	"shiftcost-backend/internal/usage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store persists entries. Each write is atomic on its own, so a writer in
// another process cannot be undone by a stale read here:
// SaveCounts upserts opening, purchased and sold and never writes the
// actual closing, re-deriving status against the stored one; SetActual
// writes only the actual closing (nil clears it) and status, and reports
// false when the row does not exist.
type Store interface {
	Get(ctx context.Context, date time.Time, kind Kind) (Entry, bool, error)
	SaveCounts(ctx context.Context, e Entry) (Entry, error)
	SetActual(ctx context.Context, date time.Time, kind Kind, actual *float64) (Entry, bool, error)
	History(ctx context.Context, kind Kind, limit int) ([]Entry, error)
}

// Receipts gives the consumable usage projected from a shift's POS sales.
type Receipts interface {
	UsageTotals(ctx context.Context, date time.Time) (usage.Totals, error)
}

// Purchases sums the purchase tally of one kind on one date.
type Purchases interface {
	PurchasedTotal(ctx context.Context, date time.Time, kind Kind) (float64, error)
}

// DrinkSales reads the manual sold count of a drink.
type DrinkSales interface {
	DrinkSold(ctx context.Context, date time.Time, kind Kind) (float64, error)
}

// DrinkKinds lists the drink kinds with a purchase or count on a date.
type DrinkKinds interface {
	DrinkKinds(ctx context.Context, date time.Time) ([]Kind, error)
}

type Deps struct {
	Store      Store
	Receipts   Receipts
	Purchases  Purchases
	DrinkSales DrinkSales
	DrinkKinds DrinkKinds
	Notifier   notify.Publisher // optional
	Log        *zap.Logger
}

type Ledger struct {
	store     Store
	receipts  Receipts
	purchases Purchases
	drinks    DrinkSales
	kinds     DrinkKinds
	notifier  notify.Publisher
	log       *zap.Logger
	locks     *keyedMutex
	now       func() time.Time
}

func New(d Deps) *Ledger {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store:     d.Store,
		receipts:  d.Receipts,
		purchases: d.Purchases,
		drinks:    d.DrinkSales,
		kinds:     d.DrinkKinds,
		notifier:  d.Notifier,
		log:       log,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

func lockKey(date time.Time, kind Kind) string {
	return date.Format(shiftwindow.DateLayout) + "|" + string(kind)
}

// Refresh recomputes the entry of (date, kind) from its sources: opening
// from the previous day's closing, purchases from the tally and sold from
// the POS projection (or the manual count for drinks). A recorded actual
// closing is kept. Every input is read before anything is written, so a
// failed read leaves the stored entry as it was.
func (l *Ledger) Refresh(ctx context.Context, date time.Time, kind Kind) (Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Entry{}, err
	}
	date = day(date)
	unlock := l.locks.Lock(lockKey(date, kind))
	defer unlock()
	return l.refreshLocked(ctx, date, kind)
}

func (l *Ledger) refreshLocked(ctx context.Context, date time.Time, kind Kind) (Entry, error) {
	prev, hasPrev, err := l.store.Get(ctx, date.AddDate(0, 0, -1), kind)
	if err != nil {
		return Entry{}, fmt.Errorf("load previous entry: %w", err)
	}
	purchased, err := l.purchases.PurchasedTotal(ctx, date, kind)
	if err != nil {
		return Entry{}, fmt.Errorf("load purchases: %w", err)
	}
	sold, err := l.sold(ctx, date, kind)
	if err != nil {
		return Entry{}, err
	}
	cur, exists, err := l.store.Get(ctx, date, kind)
	if err != nil {
		return Entry{}, fmt.Errorf("load entry: %w", err)
	}

	e := Entry{
		BusinessDate: date,
		Kind:         kind,
		Purchased:    purchased,
		Sold:         sold,
	}
	if hasPrev {
		e.Opening = prev.Closing()
	}

	e, err = l.store.SaveCounts(ctx, e)
	if err != nil {
		return Entry{}, fmt.Errorf("save entry: %w", err)
	}
	if e.Status == StatusAlert && (!exists || cur.Status != StatusAlert) {
		l.alert(ctx, e)
	}
	return e, nil
}

func (l *Ledger) sold(ctx context.Context, date time.Time, kind Kind) (float64, error) {
	if kind.IsDrink() {
		n, err := l.drinks.DrinkSold(ctx, date, kind)
		if err != nil {
			return 0, fmt.Errorf("load drink sales: %w", err)
		}
		return n, nil
	}
	totals, err := l.receipts.UsageTotals(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("load pos usage: %w", err)
	}
	if kind == KindMeat {
		return totals.RedMeatGrams, nil
	}
	return totals.Rolls, nil
}

// RecordActual stores the closing count and sets variance and status. Any
// nonzero variance is an ALERT. A missing entry is refreshed first.
func (l *Ledger) RecordActual(ctx context.Context, date time.Time, kind Kind, actual float64) (Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Entry{}, err
	}
	if actual < 0 {
		return Entry{}, fmt.Errorf("%w: %v", ErrNegativeCount, actual)
	}
	date = day(date)
	unlock := l.locks.Lock(lockKey(date, kind))
	defer unlock()

	e, exists, err := l.store.Get(ctx, date, kind)
	if err != nil {
		return Entry{}, fmt.Errorf("load entry: %w", err)
	}
	if !exists {
		if e, err = l.refreshLocked(ctx, date, kind); err != nil {
			return Entry{}, err
		}
	}

	wasAlert := e.Status == StatusAlert
	e, ok, err := l.store.SetActual(ctx, date, kind, &actual)
	if err != nil {
		return Entry{}, fmt.Errorf("save entry: %w", err)
	}
	if !ok {
		return Entry{}, fmt.Errorf("save entry: no row for %s %s", date.Format(shiftwindow.DateLayout), kind)
	}
	if e.Status == StatusAlert && !wasAlert {
		l.alert(ctx, e)
	}
	return e, nil
}

// ClearActual drops the closing count of an entry, back to PENDING. Used
// when the count it came from is undone.
func (l *Ledger) ClearActual(ctx context.Context, date time.Time, kind Kind) (Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Entry{}, err
	}
	date = day(date)
	unlock := l.locks.Lock(lockKey(date, kind))
	defer unlock()

	e, exists, err := l.store.Get(ctx, date, kind)
	if err != nil {
		return Entry{}, fmt.Errorf("load entry: %w", err)
	}
	if !exists || e.Actual == nil {
		return e, nil
	}
	e, _, err = l.store.SetActual(ctx, date, kind, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("save entry: %w", err)
	}
	return e, nil
}

func (l *Ledger) alert(ctx context.Context, e Entry) {
	v := e.Variance()
	l.log.Warn("closing count does not match ledger",
		zap.Time("business_date", e.BusinessDate),
		zap.String("item_kind", string(e.Kind)),
		zap.Float64("expected", e.Expected()),
		zap.Float64p("actual", e.Actual),
	)
	if l.notifier == nil || v == nil {
		return
	}
	err := l.notifier.Publish(ctx, notify.Alert{
		BusinessDate: e.BusinessDate.Format(shiftwindow.DateLayout),
		ItemKind:     string(e.Kind),
		Expected:     e.Expected(),
		Actual:       *e.Actual,
		Variance:     *v,
		RaisedAt:     l.now(),
	})
	if err != nil {
		l.log.Error("ledger alert not published", zap.String("item_kind", string(e.Kind)), zap.Error(err))
	}
}

const (
	DefaultHistoryDays = 14
	MaxHistoryDays     = 366
)

// History returns the latest windowDays entries of kind, newest first.
func (l *Ledger) History(ctx context.Context, kind Kind, windowDays int) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = DefaultHistoryDays
	}
	if windowDays > MaxHistoryDays {
		windowDays = MaxHistoryDays
	}
	return l.store.History(ctx, kind, windowDays)
}

// Kinds lists rolls, meat and every drink kind seen on date.
func (l *Ledger) Kinds(ctx context.Context, date time.Time) ([]Kind, error) {
	kinds := []Kind{KindRolls, KindMeat}
	if l.kinds == nil {
		return kinds, nil
	}
	drinks, err := l.kinds.DrinkKinds(ctx, day(date))
	if err != nil {
		return nil, fmt.Errorf("list drink kinds: %w", err)
	}
	sort.Slice(drinks, func(i, j int) bool { return drinks[i] < drinks[j] })
	for i, k := range drinks {
		if i > 0 && drinks[i-1] == k {
			continue
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

type RebuildReport struct {
	From    string `json:"from"`
	Days    int    `json:"days"`
	Kinds   []Kind `json:"kinds"`
	Entries int64  `json:"entries"`
}

// Rebuild refreshes days consecutive dates from from. Kinds run in
// parallel, dates within a kind run in order so each opening picks up the
// closing just written. With no kinds given, every kind seen in the range
// is rebuilt.
func (l *Ledger) Rebuild(ctx context.Context, from time.Time, days int, kinds []Kind) (RebuildReport, error) {
	dates := shiftwindow.Range(day(from), days)
	report := RebuildReport{From: day(from).Format(shiftwindow.DateLayout), Days: len(dates)}
	if len(dates) == 0 {
		return report, nil
	}

	candidates := kinds
	if len(candidates) == 0 {
		ks, err := l.KindsBetween(ctx, from, days)
		if err != nil {
			return report, err
		}
		candidates = ks
	}
	// one goroutine per kind, never two on the same key
	seen := map[Kind]bool{}
	kinds = nil
	for _, k := range candidates {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	report.Kinds = kinds

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, k := range kinds {
		k := k
		g.Go(func() error {
			for _, d := range dates {
				if err := gctx.Err(); err != nil {
					return err
				}
				if _, err := l.Refresh(gctx, d, k); err != nil {
					return fmt.Errorf("%s %s: %w", d.Format(shiftwindow.DateLayout), k, err)
				}
				done.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	report.Entries = done.Load()
	return report, err
}

// KindsBetween lists every kind seen in days dates starting at from.
func (l *Ledger) KindsBetween(ctx context.Context, from time.Time, days int) ([]Kind, error) {
	seen := map[Kind]bool{}
	var out []Kind
	for _, d := range shiftwindow.Range(day(from), days) {
		ks, err := l.Kinds(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, k := range ks {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out, nil
}
