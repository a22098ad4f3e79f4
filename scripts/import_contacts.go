//go:build ignore
// +build ignore

// Imports contacts from a CSV file (name,email per line) into the contact
// store. Duplicate addresses are skipped.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run scripts/import_contacts.go contacts.csv
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/repository/postgres"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <contacts.csv>", os.Args[0])
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	repo := postgres.NewContactRepo(db)
	reader := csv.NewReader(f)
	ctx := context.Background()

	imported, skipped := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read csv: %v", err)
		}
		if len(record) < 2 {
			skipped++
			continue
		}

		inserted, err := repo.Insert(ctx, &domain.Contact{Name: record[0], Email: record[1]})
		if err != nil {
			log.Printf("skipping %s: %v", record[1], err)
			skipped++
			continue
		}
		if inserted {
			imported++
		} else {
			skipped++
		}
	}

	fmt.Printf("imported %d contacts, skipped %d\n", imported, skipped)
}
