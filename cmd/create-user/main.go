package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"mietrecht-backend/config"
	"mietrecht-backend/models"
	"mietrecht-backend/repository"
)

var (
	userEmail    string
	userName     string
	userPassword string
)

func main() {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a dashboard (lawyer) account",
		Long: `Create a dashboard account whose credentials are checked by HTTP basic auth
when DASHBOARD_AUTH=true. The password is stored as a bcrypt hash.

Examples:
  create-user --email anwalt@kanzlei.de --name "RA Weber" --password geheim
  DASHBOARD_PASSWORD=geheim create-user --email anwalt@kanzlei.de`,
		Args: cobra.NoArgs,
		RunE: runCreateUser,
	}
	cmd.Flags().StringVarP(&userEmail, "email", "e", "", "login email (required)")
	cmd.Flags().StringVarP(&userName, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&userPassword, "password", "p", "", "password, defaults to $DASHBOARD_PASSWORD")
	_ = cmd.MarkFlagRequired("email")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	if !config.LoadDotEnv() {
		fmt.Fprintln(os.Stderr, "Warning: No .env file found, using environment variables")
	}

	password := userPassword
	if password == "" {
		password = os.Getenv("DASHBOARD_PASSWORD")
	}
	if len(password) < 8 {
		return errors.New("password must have at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to connect to %s store: %w", cfg.Store.Driver, err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.TrimSpace(userEmail),
		PasswordHash: string(hashedPassword),
		Name:         userName,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("user with email %s already exists", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("✅ Dashboard user created\n")
	fmt.Printf("   ID: %d\n", user.ID)
	fmt.Printf("   Email: %s\n", user.Email)
	fmt.Printf("   Name: %s\n", user.Name)
	return nil
}
