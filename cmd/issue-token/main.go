package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/theunits/units/config"
	"github.com/theunits/units/internal/core/auth"
	"github.com/theunits/units/internal/storage/database"
)

// issue-token creates the named user if needed and prints a bearer token
// for it.
func main() {
	username := flag.String("username", os.Getenv("UNITS_USERNAME"), "user to issue the token for")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username or UNITS_USERNAME is required")
	}

	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	// Connect to database
	db, err := database.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	authService := auth.NewService(auth.NewRepository(db), &cfg.JWT)
	resp, err := authService.IssueToken(ctx, *username)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Issued token for %s (%s)\n", resp.User.Username, resp.User.ID)
	fmt.Println(resp.Token)
}
