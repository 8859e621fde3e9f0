package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"libraryhub/pkg/models"
)

func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	// SQLite handles one writer at a time; a single connection keeps
	// transactions from tripping over SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Genre{},
		&models.Book{},
		&models.Borrowing{},
		&models.Reservation{},
		&models.Fine{},
		&models.Notification{},
	)
}
