// Package main provides staff management utilities for Liberty Social.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"liberty/internal/config"
	"liberty/internal/database"
	"liberty/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin set-role <user_id> <role>   - Set a user's global role")
		fmt.Println("  go run ./cmd/admin demote <user_id>            - Reset a user to civilian")
		fmt.Println("  go run ./cmd/admin list-staff                  - List all staff accounts")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch os.Args[1] {
	case "set-role":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin set-role <user_id> <role>")
			os.Exit(1)
		}
		setRole(db, os.Args[2], models.GlobalRole(os.Args[3]))

	case "demote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin demote <user_id>")
			os.Exit(1)
		}
		setRole(db, os.Args[2], models.GlobalRoleCivilian)

	case "list-staff":
		listStaff(db)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func setRole(db *gorm.DB, idArg string, role models.GlobalRole) {
	if !role.Valid() {
		log.Fatalf("Unknown role %q", role)
	}

	id, err := strconv.ParseUint(idArg, 10, 32)
	if err != nil {
		log.Fatalf("Invalid user ID %q", idArg)
	}

	var user models.User
	if err := db.First(&user, uint(id)).Error; err != nil {
		log.Fatalf("User %d not found: %v", id, err)
	}

	if err := db.Model(&user).Update("global_role", role).Error; err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}

	fmt.Printf("User %d (%s) is now %s\n", user.ID, user.Username, role)
}

func listStaff(db *gorm.DB) {
	var staff []models.User
	roles := []models.GlobalRole{
		models.GlobalRoleOwner,
		models.GlobalRoleAdmin,
		models.GlobalRoleModerator,
		models.GlobalRoleDeveloper,
	}
	if err := db.Where("global_role IN ?", roles).Order("id").Find(&staff).Error; err != nil {
		log.Fatalf("Failed to list staff: %v", err)
	}

	if len(staff) == 0 {
		fmt.Println("No staff accounts found.")
		return
	}

	for _, user := range staff {
		fmt.Printf("%-6d %-24s %-12s warnings=%d banned=%v\n",
			user.ID, user.Username, user.EffectiveGlobalRole(), user.WarningCount, user.IsBanned)
	}
}
