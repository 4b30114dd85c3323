package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured database and stores the handle in DB.
func InitDB(s Settings) {
	db, err := OpenDB(s)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	DB = db

	log.Printf("Database connected successfully (driver=%s)", s.DBDriver)
}

// OpenDB builds a gorm handle for the driver named in the settings.
func OpenDB(s Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch strings.ToLower(strings.TrimSpace(s.DBDriver)) {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			s.DBUsername,
			s.DBPassword,
			s.DBHost,
			s.DBPort,
			s.DBDatabase,
		)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(s.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if s.IsProduction() && !s.DebugSQL {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.DBDriver, err)
	}
	return db, nil
}
