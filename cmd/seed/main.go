package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/starfolio/starfolio-api/config"
	"github.com/starfolio/starfolio-api/internal/domain/entity"
	"github.com/starfolio/starfolio-api/pkg/helpers"
)

// Seeds one demo profile with a filled-in education entry and project so the
// API has something to show right after a fresh migration.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@starfolio.dev"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	u := entity.NewUser("Demo User", email, hash, false)
	u.Age = 28
	u.Contact = "+1 555 0100"
	u.Address = "Amsterdam"
	u.Education = append(u.Education, entity.Education{
		ID:              uuid.NewString(),
		Type:            "university",
		InstitutionName: "Demo University",
		StartYear:       2016,
		EndYear:         2020,
		Degree:          "BSc",
		Field:           "Computer Science",
	})
	now := time.Now().UTC()
	u.Projects = append(u.Projects, entity.Project{
		ID:          uuid.NewString(),
		Title:       "Starfolio",
		Description: "Profile sharing demo project",
		CreatedAt:   now,
		UpdatedAt:   now,
	})

	doc, err := json.Marshal(u)
	if err != nil {
		log.Fatalf("failed to marshal user doc: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (id, email, guest_id, password_hash, is_guest, doc, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
		RETURNING id
	`, u.ID, u.Email, u.GuestID, u.PasswordHash, u.IsGuest, doc, u.CreatedAt, u.UpdatedAt).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
