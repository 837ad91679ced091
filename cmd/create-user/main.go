package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/matricula/matricula/internal/app"
	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/database"
	"github.com/matricula/matricula/internal/logger"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/repository"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/validator"
)

func main() {
	var username string
	flag.StringVar(&username, "u", "", "username (prompted when empty)")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to the Database ───────────────────────────────────────
	backend, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer backend.Close()

	stores, err := app.NewStores(backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare schema")
	}
	userService := service.NewUserService(stores.Users, nil, cfg.BcryptCost, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Operator Account ===")

	if username == "" {
		fmt.Print("Enter Username: ")
		line, _ := reader.ReadString('\n')
		username = strings.TrimSpace(line)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	if string(confirm) != string(bytePassword) {
		fmt.Println("Error: passwords do not match")
		return
	}

	req := model.CreateUserRequest{Username: username, Password: string(bytePassword)}
	if fields := validator.New().Validate(&createUserForm{Username: req.Username, Password: req.Password}); fields != nil {
		for field, msg := range fields {
			fmt.Printf("Error: %s: %s\n", field, msg)
		}
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.Create(ctx, 0, req)
	if errors.Is(err, repository.ErrDuplicateUsername) {
		fmt.Printf("Error: username %q already exists\n", username)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! Operator '%s' created with ID: %d\n", user.Username, user.ID)
}

// createUserForm carries the same rules as the API's create-user payload.
type createUserForm struct {
	Username string `form:"username" validate:"required,min=3,max=64"`
	Password string `form:"password" validate:"required,min=4,max=72"`
}
