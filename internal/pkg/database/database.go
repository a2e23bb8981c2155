package database

import "gorm.io/gorm"

// DB is the global database handle set up by SetupDatabase.
var DB *gorm.DB

// GetDB returns the shared GORM handle (nil before SetupDatabase ran).
func GetDB() *gorm.DB {
	return DB
}

// SetDB swaps the global handle; used by tests with sqlmock/sqlite handles.
func SetDB(db *gorm.DB) {
	DB = db
}
