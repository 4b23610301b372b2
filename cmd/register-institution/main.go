package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/edumatrix/edumatrix-backend/internal/config"
	"github.com/edumatrix/edumatrix-backend/internal/database"
	"github.com/edumatrix/edumatrix-backend/internal/logger"
	"github.com/edumatrix/edumatrix-backend/internal/model"
	"github.com/edumatrix/edumatrix-backend/internal/repository"
	"github.com/edumatrix/edumatrix-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	institutionRepo := repository.NewInstitutionRepository(pool)
	authService := service.NewAuthService(cfg, rdb)
	institutionService := service.NewInstitutionService(institutionRepo, authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Register New Institution ===")

	name := prompt(reader, "Enter Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	instType := strings.ToUpper(prompt(reader, "Enter Type (SCHOOL/COLLEGE): "))
	if instType != string(model.InstitutionTypeSchool) && instType != string(model.InstitutionTypeCollege) {
		fmt.Println("Error: Type must be SCHOOL or COLLEGE")
		return
	}

	address := prompt(reader, "Enter Address: ")
	if address == "" {
		fmt.Println("Error: Address is required")
		return
	}

	contact := prompt(reader, "Enter Contact: ")
	if contact == "" {
		fmt.Println("Error: Contact is required")
		return
	}

	principal := prompt(reader, "Enter Principal Name: ")
	if principal == "" {
		fmt.Println("Error: Principal name is required")
		return
	}

	fmt.Print("Enter Admin Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Register ──────────────────────────────────────────────────────
	inst, err := institutionService.Register(ctx, &model.RegisterInstitutionRequest{
		Name:          name,
		Type:          instType,
		Address:       address,
		Contact:       contact,
		PrincipalName: principal,
		Password:      password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register institution")
	}

	fmt.Printf("\nSuccess! Institution '%s' registered.\n", inst.Name)
	fmt.Printf("Login code: %s (share this with the admin; it cannot be changed)\n", inst.Code)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
