//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/database"
	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/store"
	"github.com/hugh/go-companies/pkg/config"
	"github.com/hugh/go-companies/pkg/crypto"
	"github.com/hugh/go-companies/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, "seed")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	cipher, err := crypto.NewFieldCipher(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("failed to create field cipher: %v", err)
	}
	users := store.New(db, cipher).Users

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}

	ctx := context.Background()
	taken, err := users.EmailTaken(ctx, email)
	if err != nil {
		log.Fatalf("failed to check existing users: %v", err)
	}
	if taken {
		fmt.Printf("Super admin already exists: %s\n", email)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Super",
		LastName:     "Admin",
		UserType:     models.RoleSuperAdmin,
		IsActive:     true,
		IsSuperAdmin: true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("failed to create super admin: %v", err)
	}

	token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry()).GenerateToken(user.ID, user.Email, user.UserType)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}

	fmt.Printf("Super admin created successfully!\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Token: %s\n", token)
}
