package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/internal/users"
	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/db/models"
	dbtypes "github.com/luxemarket/storefront-backend/pkg/db/types"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

type passwordHasher interface {
	Hash(password string) (string, error)
}

type seeder struct {
	users    *users.Repository
	products *products.Repository
	hasher   passwordHasher
	logg     *logger.Logger
}

// ensureAdmin creates the configured administrator, or promotes the existing
// account with that email. Blank credentials skip the step.
func (s *seeder) ensureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	email := users.NormalizeEmail(cfg.Email)
	if email == "" || cfg.Password == "" {
		s.logg.Warn(ctx, "admin credentials not configured, skipping admin seed")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.EnsureRole(ctx, existing.ID, enums.RoleAdmin); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		s.logg.Info(ctx, "admin already present")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := s.hasher.Hash(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         cfg.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logg.Info(ctx, "admin created")
	return nil
}

// seedCatalog inserts the starter products only into an empty catalog and
// reports how many rows were written.
func (s *seeder) seedCatalog(ctx context.Context) (int, error) {
	count, err := s.products.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		s.logg.Info(ctx, "catalog not empty, skipping product seed")
		return 0, nil
	}

	catalog := starterCatalog()
	for i := range catalog {
		if err := s.products.Create(ctx, &catalog[i]); err != nil {
			return i, fmt.Errorf("create product %q: %w", catalog[i].Name, err)
		}
	}
	return len(catalog), nil
}

func starterCatalog() []models.Product {
	return []models.Product{
		{
			Name:        "HomeGuard 1100VA Line-Interactive UPS",
			Description: "Compact backup for routers, desktops and CCTV with automatic voltage regulation.",
			Price:       decimal.RequireFromString("5499"),
			Category:    enums.ProductCategoryUPSHome,
			ImageURL:    "/images/products/homeguard-1100.jpg",
			Rating:      4.4,
			ReviewCount: 128,
			Stock:       40,
			Discount:    10,
			Features:    dbtypes.StringList{"1100VA / 660W", "AVR", "4 battery-backed outlets", "USB monitoring"},
			Colors:      dbtypes.StringList{"Black"},
		},
		{
			Name:        "HomeGuard 2000VA Pure Sine UPS",
			Description: "Pure sine wave output for sensitive electronics and home theatre setups.",
			Price:       decimal.RequireFromString("11999"),
			Category:    enums.ProductCategoryUPSHome,
			ImageURL:    "/images/products/homeguard-2000.jpg",
			Rating:      4.6,
			ReviewCount: 74,
			Stock:       18,
			Discount:    5,
			Features:    dbtypes.StringList{"2000VA / 1200W", "Pure sine wave", "LCD status panel"},
			Colors:      dbtypes.StringList{"Black", "White"},
		},
		{
			Name:        "OfficePro 3kVA Online UPS",
			Description: "Double-conversion online UPS for small server rooms and workstations.",
			Price:       decimal.RequireFromString("38500"),
			Category:    enums.ProductCategoryUPSOffice,
			ImageURL:    "/images/products/officepro-3k.jpg",
			Rating:      4.7,
			ReviewCount: 41,
			Stock:       8,
			Features:    dbtypes.StringList{"3000VA / 2700W", "Zero transfer time", "SNMP slot", "Hot-swappable batteries"},
			Colors:      dbtypes.StringList{"Black"},
		},
		{
			Name:        "OfficePro 6kVA Rack UPS",
			Description: "Rack-mountable online UPS with extended runtime battery packs.",
			Price:       decimal.RequireFromString("84999"),
			Category:    enums.ProductCategoryUPSOffice,
			ImageURL:    "/images/products/officepro-6k.jpg",
			Rating:      4.5,
			ReviewCount: 19,
			Stock:       3,
			Discount:    8,
			Features:    dbtypes.StringList{"6000VA / 5400W", "2U rack", "Network card included"},
			Colors:      dbtypes.StringList{"Black"},
		},
		{
			Name:        "SineMax 1500 Home Inverter",
			Description: "Sine wave inverter for whole-home backup with a single tubular battery.",
			Price:       decimal.RequireFromString("8750"),
			Category:    enums.ProductCategoryInverter,
			ImageURL:    "/images/products/sinemax-1500.jpg",
			Rating:      4.3,
			ReviewCount: 212,
			Stock:       25,
			Discount:    12,
			Features:    dbtypes.StringList{"1500VA / 12V", "Eco and UPS modes", "Overload protection"},
			Colors:      dbtypes.StringList{"Grey"},
		},
		{
			Name:        "SineMax 3500 Dual-Battery Inverter",
			Description: "Higher capacity inverter for larger homes and small shops.",
			Price:       decimal.RequireFromString("17999"),
			Category:    enums.ProductCategoryInverter,
			ImageURL:    "/images/products/sinemax-3500.jpg",
			Rating:      4.2,
			ReviewCount: 66,
			Stock:       12,
			Features:    dbtypes.StringList{"3500VA / 24V", "Dual battery support", "Solar ready"},
			Colors:      dbtypes.StringList{"Grey", "White"},
		},
		{
			Name:        "PowerCell 150Ah Tubular Battery",
			Description: "Long-life tall tubular battery for inverter backup.",
			Price:       decimal.RequireFromString("14500"),
			Category:    enums.ProductCategoryBatteryBackup,
			ImageURL:    "/images/products/powercell-150.jpg",
			Rating:      4.5,
			ReviewCount: 301,
			Stock:       30,
			Discount:    7,
			Features:    dbtypes.StringList{"150Ah / 12V", "Low maintenance", "48 month warranty"},
			Colors:      dbtypes.StringList{"White"},
		},
		{
			Name:        "PowerCell 100Ah Lithium Pack",
			Description: "Lightweight lithium iron phosphate pack with built-in BMS.",
			Price:       decimal.RequireFromString("32999"),
			Category:    enums.ProductCategoryBatteryBackup,
			ImageURL:    "/images/products/powercell-li100.jpg",
			Rating:      4.8,
			ReviewCount: 37,
			Stock:       0,
			Features:    dbtypes.StringList{"100Ah / 12.8V", "3000+ cycles", "Built-in BMS"},
			Colors:      dbtypes.StringList{"Blue"},
		},
		{
			Name:        "Battery Trolley with Wheels",
			Description: "Steel trolley that keeps inverter batteries off the floor.",
			Price:       decimal.RequireFromString("1299"),
			Category:    enums.ProductCategoryAccessories,
			ImageURL:    "/images/products/battery-trolley.jpg",
			Rating:      4.1,
			ReviewCount: 88,
			Stock:       60,
			Features:    dbtypes.StringList{"Fits up to 200Ah", "Lockable castors"},
			Colors:      dbtypes.StringList{"Black"},
		},
		{
			Name:        "UPS Monitoring Network Card",
			Description: "Adds SNMP and web monitoring to OfficePro series units.",
			Price:       decimal.RequireFromString("6999"),
			Category:    enums.ProductCategoryAccessories,
			ImageURL:    "/images/products/network-card.jpg",
			Rating:      4.0,
			ReviewCount: 12,
			Stock:       15,
			Discount:    15,
			Features:    dbtypes.StringList{"SNMP v1/v2c/v3", "Email alerts", "Web console"},
			Colors:      dbtypes.StringList{"Green"},
		},
	}
}
