package database

import (
	"fmt"
	"time"

	"github.com/lshigami/pblagro/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// NewDatabase opens the Supabase Postgres connection.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormLogger.Warn
	if cfg.Env == "development" {
		logLevel = gormLogger.Info
	}

	// Supabase's pooler runs in transaction mode, which cannot hold prepared statements.
	dialector := postgres.New(postgres.Config{
		DSN:                  dsn(cfg.Database),
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(logLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Str("host", cfg.Database.Host).Msg("Database connection established")
	return db, nil
}

func dsn(c config.Database) string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
