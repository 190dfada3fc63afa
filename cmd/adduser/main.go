package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ledger/internal/auth"
	"ledger/internal/config"
	"ledger/internal/storage"
)

// adduser provisions an account from the command line; there is no
// self-service signup.
func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "email address the user logs in with")
	name := flag.String("name", "", "display name")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	if *email == "" || *name == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user, err := repo.CreateUser(context.Background(), *email, *name, hash)
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("created user %s (%s)\n", user.ID, user.Email)
}
