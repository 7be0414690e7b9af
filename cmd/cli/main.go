package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"akstore/internal/auth"
	"akstore/internal/config"
	"akstore/internal/db"
	"akstore/internal/domain/user"
	"akstore/internal/seed"
)

const usage = "expected 'migrate', 'seed' or 'add-user' subcommand"

func main() {
	_ = godotenv.Load()

	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	name := addUserCmd.String("name", "", "Display name")
	email := addUserCmd.String("email", "", "Login email")
	password := addUserCmd.String("password", "", "Password for the new account")
	role := addUserCmd.String("role", string(user.RoleAdmin), "admin or customer")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := config.Load()

	switch os.Args[1] {
	case "migrate":
		app, system := open(ctx, cfg)
		migrate(ctx, app, system)
		fmt.Println("migrations applied")
	case "seed":
		app, system := open(ctx, cfg)
		migrate(ctx, app, system)
		if err := seed.Apply(ctx, app, system); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
		fmt.Println("seed applied")
	case "add-user":
		_ = addUserCmd.Parse(os.Args[2:])
		if *name == "" || *email == "" || *password == "" {
			fmt.Println("name, email and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		r := user.Role(strings.ToLower(*role))
		if r != user.RoleAdmin && r != user.RoleCustomer {
			log.Fatalf("unknown role %q", *role)
		}
		app, system := open(ctx, cfg)
		migrate(ctx, app, system)
		createUser(ctx, system, *name, *email, *password, r)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func open(ctx context.Context, cfg config.Config) (*db.DB, *db.DB) {
	app, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if !cfg.SplitDatabases() {
		return app, app
	}
	system, err := db.Open(ctx, cfg.DBDriver, cfg.SystemDatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("Failed to open system database: %v", err)
	}
	return app, system
}

func migrate(ctx context.Context, app, system *db.DB) {
	if err := app.Migrate(ctx, db.SetApp); err != nil {
		log.Fatalf("Failed to migrate app database: %v", err)
	}
	if err := system.Migrate(ctx, db.SetSystem); err != nil {
		log.Fatalf("Failed to migrate system database: %v", err)
	}
}

func createUser(ctx context.Context, system *db.DB, name, email, password string, role user.Role) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	u := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Addresses: []string{},
		Role:      role,
		CreatedAt: time.Now().UnixMilli(),
	}
	if _, err := auth.NewUserRepo(system).Create(ctx, u, hash); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("User '%s' created successfully.\n", u.Email)
}
