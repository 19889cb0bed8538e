package main

import (
	"log"
	"os"

	"tourmarket/internal/database"
	"tourmarket/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "tourmarket.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed:", err)
	}

	// clean in dependency order
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM reviews")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM listings")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	admin := user("admin@tourmarket.io", "admin123", domain.RoleAdmin, "Platform Admin")
	guideAna := user("ana@tourmarket.io", "guide123", domain.RoleGuide, "Ana Petrova")
	guideMarco := user("marco@tourmarket.io", "guide123", domain.RoleGuide, "Marco Rossi")
	tourist := user("taylor@example.com", "tourist123", domain.RoleTourist, "Taylor Kim")

	for _, u := range []*domain.User{admin, guideAna, guideMarco, tourist} {
		if err := db.Create(u).Error; err != nil {
			log.Fatal("seed user failed:", err)
		}
	}

	log.Println("Creating listings...")
	listings := []*domain.Listing{
		{
			GuideID:      guideAna.ID,
			Title:        "Old Town Walking Tour",
			Description:  "Three hours through the historic center with a local.",
			City:         "Prague",
			Country:      "Czech Republic",
			Category:     "walking",
			TourFee:      decimal.NewFromInt(45),
			Currency:     "USD",
			DurationHrs:  3,
			MaxGroupSize: 10,
			Status:       domain.ListingActive,
			IsActive:     true,
		},
		{
			GuideID:      guideAna.ID,
			Title:        "Sunset Food Crawl",
			Description:  "Five stops, five tastings, one evening.",
			City:         "Prague",
			Country:      "Czech Republic",
			Category:     "food",
			TourFee:      decimal.NewFromInt(80),
			Currency:     "USD",
			DurationHrs:  4,
			MaxGroupSize: 6,
			Status:       domain.ListingActive,
			IsActive:     true,
		},
		{
			GuideID:      guideMarco.ID,
			Title:        "Dolomites Day Hike",
			Description:  "A full day on alpine trails, transport included.",
			City:         "Bolzano",
			Country:      "Italy",
			Category:     "hiking",
			TourFee:      decimal.NewFromInt(120),
			Currency:     "USD",
			DurationHrs:  9,
			MaxGroupSize: 8,
			Status:       domain.ListingActive,
			IsActive:     true,
		},
	}
	for _, l := range listings {
		if err := db.Create(l).Error; err != nil {
			log.Fatal("seed listing failed:", err)
		}
	}

	log.Printf("Seeded %d users and %d listings", 4, len(listings))
}

func user(email, password string, role domain.UserRole, name string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("bcrypt failed:", err)
	}
	return &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Name:         name,
		IsActive:     true,
	}
}
