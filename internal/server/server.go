// Package server wires the stores, the ledger and the HTTP routes. The
// API server and shiftctl both start from New.
package server

import (
	"fmt"
	"os"
	"time"

	"shiftcost-backend/internal/config"
	"shiftcost-backend/internal/costing"
	"shiftcost-backend/internal/database"
	"shiftcost-backend/internal/forms"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/notify"
	"shiftcost-backend/internal/pos"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/tally"
	"shiftcost-backend/internal/usage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Services struct {
	Config    *config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Location  *time.Location
	Notifier  notify.Publisher
	Catalogue *usage.GormProvider
	POS       *pos.Store
	Ledger    *ledger.Ledger
	Reconcile *reconcile.Store
	Costing   *costing.Store
	Tally     *tally.Store
	Forms     *forms.Store
}

func loadCatalogue(path string) (*usage.Catalogue, error) {
	if path == "" {
		return usage.DefaultCatalogue(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()
	return usage.LoadCatalogueYAML(f)
}

// New connects the database and builds every service.
func New(cfg *config.Config, log *zap.Logger) (*Services, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if err := database.Init(cfg, log); err != nil {
		return nil, err
	}
	db := database.DB

	fallback, err := loadCatalogue(cfg.CatalogueFile)
	if err != nil {
		return nil, err
	}
	log.Info("usage catalogue loaded", zap.Int("products", fallback.Len()), zap.String("file", cfg.CatalogueFile))

	notifier, err := notify.New(cfg.NATSURL, cfg.NATSAlertSubject, log)
	if err != nil {
		// alerts are best effort; keep serving with log-only alerts
		log.Warn("NATS unavailable, ledger alerts are only logged", zap.Error(err))
		notifier = notify.LogPublisher{Log: log}
	}

	s := &Services{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Location:  loc,
		Notifier:  notifier,
		Catalogue: usage.NewGormProvider(db, fallback),
		POS:       pos.NewStore(db),
		Reconcile: reconcile.NewStore(db),
		Costing:   costing.NewStore(db),
		Tally:     tally.NewStore(db),
		Forms:     forms.NewStore(db),
	}
	sources := ledger.NewGormSources(db)
	s.Ledger = ledger.New(ledger.Deps{
		Store:      ledger.NewGormStore(db),
		Receipts:   ledger.ProjectedReceipts{Items: s.POS, Provider: s.Catalogue, Location: loc},
		Purchases:  sources,
		DrinkSales: sources,
		DrinkKinds: sources,
		Notifier:   notifier,
		Log:        log.Named("ledger"),
	})
	return s, nil
}

func (s *Services) Close() error {
	if err := s.Notifier.Close(); err != nil {
		s.Log.Warn("notifier close", zap.Error(err))
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
