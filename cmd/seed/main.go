// Command seed fills the practitioners collection with demo data for local
// development.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"voctnow/config"
	"voctnow/database"
	providerRepo "voctnow/database/repository/provider"
	"voctnow/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	config.LoadConfig()
	database.InitDB()
	defer func() { _ = database.Close(context.Background()) }()

	db := database.DB()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Clear existing practitioners.
	if _, err := db.Collection("providers").DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear providers collection: %v", err)
	}

	repo, err := providerRepo.NewMongoProviderRepo(db)
	if err != nil {
		log.Fatalf("Failed to open provider repository: %v", err)
	}

	cities := []string{"Bengaluru", "Mumbai", "Delhi"}
	genders := []string{"female", "male"}
	perCity := 6

	inserted := 0
	for _, city := range cities {
		for i := 1; i <= perCity; i++ {
			n := inserted + 1
			now := time.Now().UTC()
			p := &models.Provider{
				ID:          uuid.New().String(),
				FullName:    fmt.Sprintf("Dr. %s Physio %d", city, i),
				Gender:      genders[i%len(genders)],
				Email:       fmt.Sprintf("physio_%d@example.com", n),
				PhoneNumber: fmt.Sprintf("900000%04d", n),
				City:        city,
				Status:      "approved",
				// Every third practitioner is off duty so matching has something to skip.
				IsAvailable: i%3 != 0,
				IsVerified:  true,
				CreatedAt:   now.Add(time.Duration(n) * time.Millisecond),
				UpdatedAt:   now,
			}
			if err := repo.Create(ctx, p); err != nil {
				log.Fatalf("Failed to insert practitioner %d: %v", n, err)
			}
			inserted++
		}
	}
	fmt.Printf("Inserted %d practitioners\n", inserted)
}
