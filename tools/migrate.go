package main

import (
	"fmt"
	"os"

	"theater-booking/constants"
	"theater-booking/database"
	userModel "theater-booking/models/user"
	"theater-booking/utils"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run tools/migrate.go migrate     - Run database migrations")
		fmt.Println("  go run tools/migrate.go seed-admin  - Create the first admin account from ADMIN_USERNAME/ADMIN_PASSWORD")
		return
	}

	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: no .env file loaded:", err)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		fmt.Println("🚀 Running database migrations...")
		if _, err := database.InitDB(); err != nil {
			fmt.Printf("❌ Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Migration completed successfully!")

	case "seed-admin":
		if err := seedAdmin(); err != nil {
			fmt.Printf("❌ Seeding failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Admin account ready!")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Available commands: migrate, seed-admin")
	}
}

// seedAdmin creates the bootstrap administrator when no users exist yet.
// Every later account is registered through the API by an admin.
func seedAdmin() error {
	db, err := database.InitDB()
	if err != nil {
		return err
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set")
	}

	var count int64
	if err := db.Model(&userModel.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Printf("Admin %s already exists, nothing to do\n", username)
		return nil
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := userModel.User{
		Uuid:         uuid.NewString(),
		Username:     username,
		LegalName:    "System Administrator",
		Phone:        os.Getenv("ADMIN_PHONE"),
		PasswordHash: passwordHash,
		Role:         "admin",
		Permissions:  userModel.StringSlice{constants.PermSuperAdminFull},
	}

	return db.Create(&admin).Error
}
