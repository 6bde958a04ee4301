package database

import (
	"fmt"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/config"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Info("connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	err := db.AutoMigrate(
		// Configuration feeds
		&entity.TenderMethod{},
		&entity.TaxPolicy{},
		&entity.POSProfile{},

		// Catalog and parties
		&entity.Product{},
		&entity.Customer{},
		&entity.CustomerAddress{},

		// Invoicing
		&entity.Invoice{},
		&entity.InvoiceItem{},
		&entity.InvoicePayment{},
		&entity.InvoiceDiscount{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// SeedDefaultData creates the tender methods, tax policies and POS profile a
// fresh install needs. Existing rows are left untouched.
func SeedDefaultData(db *gorm.DB, cfg *config.POSConfig, log *zap.Logger) error {
	log.Info("seeding default data")

	methods := []entity.TenderMethod{
		{ID: "cash", Name: "Cash", IsDefault: true, Enabled: true, SortOrder: 1},
		{ID: "card", Name: "Card", Enabled: true, SortOrder: 2},
		{ID: "wallet", Name: "Wallet", Enabled: true, SortOrder: 3},
	}
	for i := range methods {
		if err := db.Where(entity.TenderMethod{ID: methods[i].ID}).FirstOrCreate(&methods[i]).Error; err != nil {
			log.Warn("failed to seed tender method", zap.String("id", methods[i].ID), zap.Error(err))
		}
	}

	policies := []entity.TaxPolicy{
		{ID: "VAT15", Name: "VAT 15%", Rate: decimal.NewFromInt(15), TaxType: enum.TaxTypeExclusive, IsDefault: true},
		{ID: "VAT15-INC", Name: "VAT 15% (inclusive)", Rate: decimal.NewFromInt(15), TaxType: enum.TaxTypeInclusive},
		{ID: "ZERO", Name: "Zero rated", Rate: decimal.Zero, TaxType: enum.TaxTypeExclusive},
	}
	for i := range policies {
		if err := db.Where(entity.TaxPolicy{ID: policies[i].ID}).FirstOrCreate(&policies[i]).Error; err != nil {
			log.Warn("failed to seed tax policy", zap.String("id", policies[i].ID), zap.Error(err))
		}
	}

	defaultTax := "VAT15"
	profile := entity.POSProfile{
		Name:               cfg.ProfileName,
		BusinessType:       cfg.BusinessType,
		Currency:           cfg.Currency,
		DefaultTaxPolicyID: &defaultTax,
		ReturnLookbackDays: cfg.ReturnLookbackDays,
	}
	if err := db.Where(entity.POSProfile{Name: cfg.ProfileName}).FirstOrCreate(&profile).Error; err != nil {
		log.Warn("failed to seed POS profile", zap.String("name", cfg.ProfileName), zap.Error(err))
	}

	log.Info("default data seeding completed")
	return nil
}
