package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"studyhub/internal/models"
	"studyhub/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// InitDB initializes the database connection. DB_DRIVER selects postgres
// (default) or sqlite; sqlite keeps local development and tests free of a
// server dependency while the query surface stays portable.
func InitDB(driver, sqlitePath string) error {
	var err error
	switch driver {
	case "sqlite":
		DB, err = openSQLite(sqlitePath)
	case "postgres", "":
		DB, err = openPostgres()
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		return err
	}

	if err := migrate(DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database connection established and migrations completed")
	return nil
}

func openPostgres() (*gorm.DB, error) {
	var dsn string

	if os.Getenv("GIN_MODE") == "release" {
		// In production the platform provides a single DATABASE_URL
		dsn = getEnvRequired("DATABASE_URL")
	} else {
		host := getEnvRequired("DB_HOST")
		user := getEnvRequired("DB_USER")
		password := getEnvRequired("DB_PASSWORD")
		dbname := getEnvRequired("DB_NAME")
		port := getEnvRequired("DB_PORT")
		sslMode := os.Getenv("DB_SSL_MODE")
		if sslMode == "" {
			sslMode = "disable"
		}

		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
			host, user, password, dbname, port, sslMode)
	}

	// Open connection with retry logic
	var db *gorm.DB
	var err error
	maxRetries := 5
	retryDelay := time.Second * 5

	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormConfig())
		if err == nil {
			break
		}
		log.Printf("Database connection attempt %d failed: %v", i+1, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// sqlite serializes writes; a single connection avoids busy errors
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func gormConfig() *gorm.Config {
	baseLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags|log.Lshortfile),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Drop the once-a-minute reminder scan from the query log
	quietLogger := utils.NewQuietGormLogger(
		baseLogger,
		"WHERE status = \"scheduled\" AND scheduled_start >",
		"WHERE status = 'scheduled' AND scheduled_start >",
	)

	return &gorm.Config{
		Logger: quietLogger,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		PrepareStmt: true,
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.StudyGroup{},
		&models.GroupMember{},
		&models.StudySession{},
		&models.ActivityLog{},
		&models.Notification{},
		&models.ReminderSent{},
		&models.DirectMessage{},
		&models.GroupMessage{},
		&models.Friendship{},
		&models.StudyStreak{},
		&models.DailyReport{},
		&models.Session{},
		&models.LoginLog{},
	)
}

// OpenTest opens an isolated in-memory database with the full schema,
// for use from tests
func OpenTest() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// getEnvRequired returns environment variable value or exits if not set
func getEnvRequired(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("Required environment variable %s is not set", key)
	return "" // unreachable
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
