package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	orderdomain "github.com/smallbiznis/lounge/internal/order/domain"
	paymentdomain "github.com/smallbiznis/lounge/internal/payment/domain"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	segmentdomain "github.com/smallbiznis/lounge/internal/segment/domain"
	sessiondomain "github.com/smallbiznis/lounge/internal/session/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&devicedomain.Device{},
		&productdomain.Product{},
		&ratecatalogdomain.RateProfile{},
		&ratecatalogdomain.PricingTier{},
		&sessiondomain.Session{},
		&segmentdomain.SegmentLogEntry{},
		&orderdomain.OrderLine{},
		&paymentdomain.PaymentEntry{},
	}
}

// AutoMigrate builds the schema from the models. Used for sqlite and mysql,
// which the embedded SQL does not target.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
