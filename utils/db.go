package utils

import (
	"errors"
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectDatabase opens the payments database from DB_* environment settings.
// It returns an error instead of exiting so main can decide between the GORM
// store and the in-memory store at construction time.
func ConnectDatabase() (*gorm.DB, error) {
	if os.Getenv("DB_HOST") == "" {
		return nil, errors.New("DB_HOST is not set")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to payments database: %w", err)
	}

	return db, nil
}
