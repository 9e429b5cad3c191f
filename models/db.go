package models

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database connection. Postgres is used when DATABASE_URL is
// set, otherwise a local SQLite file for development.
func InitDB() (*gorm.DB, error) {
	databaseURL := os.Getenv("DATABASE_URL")

	if databaseURL != "" {
		db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := gorm.Open(sqlite.Open("chemtrack.db"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
