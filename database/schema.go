package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist.
func InitSchema(db *sql.DB) error {
	log.Info("Initializing greenloop database schema...")

	usersTableSQL := `
	CREATE TABLE IF NOT EXISTS users(
		id INT NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE INDEX email_index (email)
	)`

	if _, err := db.Exec(usersTableSQL); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Info("Users table created/verified")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		id INT NOT NULL AUTO_INCREMENT,
		user_id INT NOT NULL,
		location VARCHAR(255) NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		waste_type VARCHAR(255) NOT NULL,
		amount VARCHAR(255) NOT NULL,
		image_url TEXT,
		verification JSON,
		status ENUM('pending', 'in_progress', 'completed', 'verified') NOT NULL DEFAULT 'pending',
		collector_id INT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX user_id_index (user_id),
		INDEX status_index (status),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`

	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	collectedWastesTableSQL := `
	CREATE TABLE IF NOT EXISTS collected_wastes(
		id INT NOT NULL AUTO_INCREMENT,
		report_id INT NOT NULL,
		collector_id INT NOT NULL,
		collected_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(32) NOT NULL DEFAULT 'verified',
		PRIMARY KEY (id),
		INDEX collector_id_index (collector_id),
		FOREIGN KEY (report_id) REFERENCES reports(id),
		FOREIGN KEY (collector_id) REFERENCES users(id)
	)`

	if _, err := db.Exec(collectedWastesTableSQL); err != nil {
		return fmt.Errorf("failed to create collected_wastes table: %w", err)
	}
	log.Info("Collected_wastes table created/verified")

	// Catalog entries only. Award history lives in the transactions ledger.
	rewardsTableSQL := `
	CREATE TABLE IF NOT EXISTS rewards(
		id INT NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		cost INT NOT NULL,
		description VARCHAR(255),
		collection_info VARCHAR(255),
		is_available BOOL NOT NULL DEFAULT true,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX is_available_index (is_available)
	)`

	if _, err := db.Exec(rewardsTableSQL); err != nil {
		return fmt.Errorf("failed to create rewards table: %w", err)
	}
	log.Info("Rewards table created/verified")

	transactionsTableSQL := `
	CREATE TABLE IF NOT EXISTS transactions(
		id INT NOT NULL AUTO_INCREMENT,
		user_id INT NOT NULL,
		type ENUM('earned_report', 'earned_collect', 'redeemed') NOT NULL,
		amount INT UNSIGNED NOT NULL,
		description VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX user_id_index (user_id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`

	if _, err := db.Exec(transactionsTableSQL); err != nil {
		return fmt.Errorf("failed to create transactions table: %w", err)
	}
	log.Info("Transactions table created/verified")

	notificationsTableSQL := `
	CREATE TABLE IF NOT EXISTS notifications(
		id INT NOT NULL AUTO_INCREMENT,
		user_id INT NOT NULL,
		message VARCHAR(255) NOT NULL,
		type VARCHAR(64) NOT NULL,
		is_read BOOL NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX user_id_is_read_index (user_id, is_read),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`

	if _, err := db.Exec(notificationsTableSQL); err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	log.Info("Notifications table created/verified")

	log.Info("Greenloop database schema initialization completed")
	return nil
}
