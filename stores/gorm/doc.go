// Package gorm provides a GORM-backed UserStore for the memberauth
// credential core. It works with any database GORM supports (PostgreSQL,
// MySQL, SQLite, SQL Server).
//
// Run AutoMigrate once at startup to create the tables:
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err := gormstore.AutoMigrate(db); err != nil { ... }
//	store := gormstore.NewUserStore(db)
package gorm
