package database

import (
	"fmt"

	"shiftcost-backend/internal/config"
	"shiftcost-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide handle used by the HTTP handlers.
var DB *gorm.DB

func Init(cfg *config.Config, log *zap.Logger) error {
	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	log.Info("database ready", zap.String("driver", cfg.DatabaseDriver))
	return nil
}

// Open connects without migrating.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.LedgerEntry{},
		&models.Purchase{},
		&models.StockCount{},
		&models.Receipt{},
		&models.ReceiptLine{},
		&models.PosShift{},
		&models.ShiftForm{},
		&models.ManagerReview{},
		&models.ProductMapping{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeLine{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// OpenMemory opens a private in-memory SQLite database with the schema
// applied. name keeps databases of parallel tests apart.
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
