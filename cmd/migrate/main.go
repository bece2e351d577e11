package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"conference-plugins/config"
	"conference-plugins/internal/repository"
	"conference-plugins/pkg/database"
)

const usage = `
Conference plugins - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create the attachment schema (idempotent)
  status      Show database connection and table status

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate status
`

var tables = []string{"attachments", "attachment_files"}

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		if err := repository.InitSchema(ctx, db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Schema is up to date")
	case "status":
		log.Println("Database connection: OK")
		for _, table := range tables {
			exists, err := database.TableExists(ctx, db, table)
			if err != nil {
				log.Printf("Error checking table %s: %v", table, err)
				continue
			}
			if exists {
				log.Printf("Table %-20s exists", table)
			} else {
				log.Printf("Table %-20s does not exist", table)
			}
		}
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		flag.Usage()
		os.Exit(1)
	}
}
