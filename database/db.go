package database

import (
	"database/sql"
	"fmt"
	"time"

	"greenloop/config"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// Connect opens a pooled MySQL connection using the service configuration.
func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Database connected to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	return db, nil
}
