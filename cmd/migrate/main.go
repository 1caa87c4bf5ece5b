package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"vgp-backend/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration completed successfully!")

	purged, err := database.NewPostgresKV(db).PurgeExpired(context.Background())
	if err != nil {
		log.Fatalf("Failed to purge expired entries: %v", err)
	}

	// Query and display summary
	var result struct {
		Entries     int `db:"entries"`
		Inspections int `db:"inspections"`
		Users       int `db:"users"`
		MagicLinks  int `db:"magic_links"`
	}

	query := `
		SELECT
			COUNT(*) AS entries,
			COUNT(CASE WHEN key LIKE '%:inspection:%' THEN 1 END) AS inspections,
			COUNT(CASE WHEN key LIKE '%:list' THEN 1 END) AS users,
			COUNT(CASE WHEN key LIKE 'magic:%' THEN 1 END) AS magic_links
		FROM kv_entries
	`

	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	// Display results
	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Key-value entries:       %d\n", result.Entries)
	fmt.Printf("Inspections:             %d\n", result.Inspections)
	fmt.Printf("Users with inspections:  %d\n", result.Users)
	fmt.Printf("Pending magic links:     %d\n", result.MagicLinks)
	fmt.Printf("Expired entries purged:  %d\n", purged)
	fmt.Println("============================================================")
}
