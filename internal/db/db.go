package db

import (
	"database/sql"
	"log"

	_ "github.com/go-sql-driver/mysql"
)

func InitDB(dbURL string) *sql.DB {
	db, err := sql.Open("mysql", dbURL)
	if err != nil {
		log.Fatal("could not open database connection:", err)
	}

	err = db.Ping()
	if err != nil {
		log.Fatal("database is not responding:", err)
	}

	log.Println("connected to database")
	return db
}

func RunMigrations(db *sql.DB) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			uid INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			balance DECIMAL(15,2) NOT NULL DEFAULT 100000.00,
			phone VARCHAR(20),
			role ENUM('Customer', 'Manager', 'Admin') NOT NULL DEFAULT 'Customer',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY users_username_key (username),
			UNIQUE KEY users_email_key (email)
		);`,
		`CREATE TABLE IF NOT EXISTS user_tokens (
			tid INT AUTO_INCREMENT PRIMARY KEY,
			token TEXT NOT NULL,
			uid INT NOT NULL,
			expiry DATETIME NOT NULL,
			INDEX user_tokens_expiry_idx (expiry),
			FOREIGN KEY (uid) REFERENCES users(uid) ON DELETE CASCADE
		);`,
	}

	for _, q := range queries {
		_, err := db.Exec(q)
		if err != nil {
			log.Fatal("migration failed:", err)
		}
	}
	log.Println("migrations completed")
}
