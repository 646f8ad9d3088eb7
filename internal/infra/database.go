package infra

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flea/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NewDatabase opens a GORM connection for driver ("postgres" through pgx, or
// "sqlite" for local runs and tests). Duplicate-key violations are translated
// into gorm.ErrDuplicatedKey.
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// A single connection keeps ":memory:" databases shared by every query.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}
	return db, nil
}

// RunMigrations brings the schema up to date and seeds reference data.
// Postgres uses the embedded SQL migrations; SQLite uses AutoMigrate of the
// same models.
func RunMigrations(ctx context.Context, db *gorm.DB, driver string) error {
	if driver == DriverSQLite {
		if err := db.WithContext(ctx).AutoMigrate(
			&model.User{},
			&model.Role{},
			&model.UserRole{},
			&model.Contact{},
			&model.Address{},
			&model.Category{},
			&model.ProductCategory{},
			&model.Product{},
			&model.Image{},
			&model.Post{},
		); err != nil {
			return fmt.Errorf("AutoMigrate: %w", err)
		}
	} else {
		if _, err := ApplySQLMigrations(ctx, db); err != nil {
			return err
		}
	}
	return seedReferenceData(ctx, db)
}

// seedReferenceData inserts the fixed roles and the fallback category when
// missing. Safe to run on every start.
func seedReferenceData(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	for _, name := range []string{model.RoleUser, model.RoleAdmin, model.RoleModerator} {
		role := model.Role{}
		if err := tx.Where("name = ?", name).Attrs(model.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	cat := model.Category{}
	if err := tx.Where("slug = ?", model.FallbackCategorySlug).
		Attrs(model.Category{Name: "Otros", Slug: model.FallbackCategorySlug}).
		FirstOrCreate(&cat).Error; err != nil {
		return fmt.Errorf("seed fallback category: %w", err)
	}
	return nil
}
