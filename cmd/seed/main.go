// Seeds demo users and found-item reports for local development. Items get
// deterministic fake embeddings so semantic search works without a real
// provider key.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/auth"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/config"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/database"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/embedding"
	"github.com/Sabnock-k/SmartFinderAI-sub000/internal/model"
	"gorm.io/gorm"
)

func main() {
	printTokens := flag.Bool("tokens", false, "Print access tokens for the seeded users")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	users := []model.User{
		{Email: "mira@campus.edu", Name: "Mira Osei", Phone: "+1-555-0101"},
		{Email: "jon@campus.edu", Name: "Jon Keller", Phone: "+1-555-0102"},
		{Email: "admin@campus.edu", Name: "Dana Admin", Phone: "+1-555-0100"},
	}

	for i := range users {
		if err := upsertUser(db, &users[i]); err != nil {
			log.Fatalf("Failed to seed user %s: %v", users[i].Email, err)
		}
		log.Printf("Seeded user %s (%s)", users[i].Email, users[i].ID)

		if *printTokens {
			token, err := auth.GenerateAccessToken(users[i].ID, users[i].Email, users[i].Name, cfg.JWTSecret)
			if err != nil {
				log.Fatalf("Failed to generate token: %v", err)
			}
			fmt.Printf("%s: %s\n", users[i].Email, token)
		}
	}

	items := []model.Item{
		{
			FounderID:           users[0].ID,
			Description:         "Blue Nike backpack with a water bottle pocket",
			Category:            model.CategoryAccessories,
			LocationDescription: "Bench outside the main library entrance",
			FoundAt:             time.Now().Add(-48 * time.Hour),
			IsApproved:          true,
			Status:              model.StatusAvailable,
		},
		{
			FounderID:           users[0].ID,
			Description:         "Silver MacBook charger, USB-C",
			Category:            model.CategoryElectronics,
			LocationDescription: "Room 204, engineering building",
			FoundAt:             time.Now().Add(-24 * time.Hour),
			Status:              model.StatusPending,
		},
		{
			FounderID:           users[1].ID,
			Description:         "Black umbrella with wooden handle",
			Category:            model.CategoryOther,
			LocationDescription: "Cafeteria, table near the window",
			FoundAt:             time.Now().Add(-6 * time.Hour),
			Status:              model.StatusPending,
		},
	}

	inserted := 0
	for i := range items {
		if err := items[i].SetEmbedding(fakeEmbedding(items[i].Description)); err != nil {
			log.Fatalf("Failed to encode embedding: %v", err)
		}
		if err := db.Create(&items[i]).Error; err != nil {
			log.Printf("Error inserting item %q: %v", items[i].Description, err)
			continue
		}
		inserted++
	}

	log.Printf("Seeding complete. Users: %d, items inserted: %d", len(users), inserted)
}

func upsertUser(db *gorm.DB, user *model.User) error {
	var existing model.User
	err := db.Where("email = ?", user.Email).First(&existing).Error
	if err == nil {
		*user = existing
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.Create(user).Error
}

// fakeEmbedding derives a stable unit vector from the text so seeded items
// rank deterministically.
func fakeEmbedding(text string) []float32 {
	vec := make([]float32, embedding.Dimension)
	var norm float64
	for i := range vec {
		h := 0
		for j, r := range text {
			h += (j + i + 1) * int(r)
		}
		v := math.Sin(float64(h%997) + float64(i))
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
