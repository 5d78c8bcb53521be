package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-rental-backend/config"
	"fleet-rental-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableExclusionConstraint {
		log.Println("Applying postgres exclusion constraint on reservation slots...")
		// ADD CONSTRAINT is not idempotent; on a restart the constraints
		// already exist and the errors are expected.
		if err := applyExclusionDDL(db); err != nil {
			log.Printf("Warning: failed to apply exclusion DDL: %v. Continuing without it.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations for all models. Exposed so tests can
// migrate their in-memory databases the same way.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Hub{},
		&model.CarType{},
		&model.Car{},
		&model.Booking{},
		&model.ReservationSlot{},
		&model.PushSubscription{},
	)
}

// applyExclusionDDL asks postgres itself to enforce the no-double-booking
// invariant: no two slots for the same car may hold intersecting half-open
// intervals. The in-process per-car locks remain authoritative for a single
// server; this constraint covers multi-process deployments.
func applyExclusionDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE reservation_slots " +
			"ADD CONSTRAINT reservation_slots_interval_valid CHECK (start_time < end_time);",

		// 下界闭、上界开：共享端点不算冲突
		"ALTER TABLE reservation_slots " +
			"ADD CONSTRAINT reservation_slots_no_overlap EXCLUDE USING GIST " +
			"(car_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
