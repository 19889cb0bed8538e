package database

import (
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// registers the CGO-free sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"

	"tourmarket/internal/domain"
)

// Connect opens PostgreSQL for postgres:// DSNs and falls back to the
// CGO-free sqlite driver for local development and tests.
func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates or updates the schema for every domain table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Listing{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.Review{},
	); err != nil {
		return err
	}

	// At most one live charge attempt per booking. Covers pending rows too,
	// so two clients racing to create an intent collide here and exactly one
	// wins; superseded attempts are flipped to cancelled or failed first.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_active_per_booking
		ON payments (booking_id)
		WHERE transaction_type = 'payment'
		  AND status IN ('pending', 'processing', 'completed')
	`).Error
}

// Close releases the underlying connection pool. Called on shutdown.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
