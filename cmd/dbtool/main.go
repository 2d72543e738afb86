// dbtool runs migrations and seeds demo data for local development: one demo
// user and a handful of Phoenix-area companies so the map has pins before the
// first CRM sync.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"fieldroute-service/internal/adapters/repositories"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/config"
	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/db"
	"fieldroute-service/migrations"
)

func main() {
	seed := flag.Bool("seed", false, "seed demo user and companies after migrating")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	log.Println("Running migrations...")
	if err := migrate(database); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	log.Println("Schema ready.")

	if *seed {
		log.Println("Seeding demo data...")
		if err := seedDemo(database); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Println("Seeding complete.")
	}
}

func migrate(database *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(database, ".")
}

func seedDemo(database *sql.DB) error {
	ctx := context.Background()

	users := repositories.NewPgUserRepository(database)
	username := config.Get("DEMO_USERNAME", "demo")
	if _, err := users.GetUserByUsername(ctx, username); err == nil {
		log.Printf("User %q already exists, skipping user seed.", username)
	} else if errors.Is(err, domain.ErrNotFound) {
		hash, err := auth.HashPassword(config.Get("DEMO_PASSWORD", "demo1234"))
		if err != nil {
			return err
		}
		name := "Demo Rep"
		if err := users.CreateUser(ctx, &domain.User{
			Username:     username,
			PasswordHash: hash,
			Name:         &name,
		}); err != nil {
			return err
		}
		log.Printf("Created user %q.", username)
	} else {
		return err
	}

	companies := repositories.NewPgCompanyRepository(database)
	return companies.UpsertCompanies(ctx, demoCompanies())
}

func demoCompanies() []domain.Company {
	type row struct {
		id, name, street string
		lat, lng         float64
	}
	rows := []row{
		{"demo-001", "Copper State Supply", "1901 W Madison St", 33.4455, -112.0870},
		{"demo-002", "Saguaro Foods", "455 N 3rd St", 33.4530, -112.0667},
		{"demo-003", "Camelback Hardware", "4730 E Indian School Rd", 33.4949, -111.9782},
		{"demo-004", "South Mountain Coffee", "7000 S Central Ave", 33.3795, -112.0740},
		{"demo-005", "Papago Electric", "1002 N Scottsdale Rd", 33.4605, -111.9260},
		{"demo-006", "Desert Bloom Nursery", "3160 W Bethany Home Rd", 33.5240, -112.1280},
	}

	city, state, country := "Phoenix", "AZ", "US"
	now := time.Now().UTC()

	out := make([]domain.Company, 0, len(rows))
	for _, r := range rows {
		street := r.street
		lat, lng := r.lat, r.lng
		out = append(out, domain.Company{
			ID:           r.id,
			Name:         r.name,
			Street:       &street,
			City:         &city,
			State:        &state,
			Country:      &country,
			Lat:          &lat,
			Lng:          &lng,
			LastSyncedAt: now,
		})
	}
	return out
}
