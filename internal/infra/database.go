package infra

import (
	"cardiocheck/internal/models/db_models"
	"cardiocheck/pkg/logger"
	"fmt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"strings"
)

// IsMemoryDSN reports whether dsn asks for no database at all.
func IsMemoryDSN(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return dsn == "" || dsn == "memory"
}

// OpenDatabase opens the client's local store. sqlite://<path> is the
// on-device default; postgres:// and postgresql:// DSNs are passed to the
// pgx driver unchanged.
func OpenDatabase(dsn string, log *logger.Logger) (*gorm.DB, error) {
	return open(dsn, log, &db_models.Credential{}, &db_models.Snapshot{})
}

// OpenSandboxDatabase opens the development backend's database.
func OpenSandboxDatabase(dsn string, log *logger.Logger) (*gorm.DB, error) {
	return open(dsn, log,
		&db_models.Account{},
		&db_models.Plan{},
		&db_models.Subscription{},
		&db_models.PaymentMethod{},
		&db_models.Transaction{},
		&db_models.HealthCheck{},
		&db_models.Prediction{},
	)
}

func open(dsn string, log *logger.Logger, models ...interface{}) (*gorm.DB, error) {
	dialector, isSQLite, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		log.Error("Error connecting to database", "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Debug("Database ready", "dialect", dialector.Name(), "tables", len(models))
	return db, nil
}

func dialectorFor(dsn string) (gorm.Dialector, bool, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), true, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported store dsn %q", dsn)
	}
}

func CloseDatabase(db *gorm.DB, log *logger.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("Error getting database instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("Error closing database connection", "error", err)
	} else {
		log.Debug("Database connection closed")
	}
}
