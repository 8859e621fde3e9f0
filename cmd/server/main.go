package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/circulation"
	"libraryhub/internal/config"
	"libraryhub/internal/handlers"
	"libraryhub/pkg/database"
)

func main() {
	cfg := config.Load()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal(err)
		}
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(cfg.SeedPath); err == nil {
		books, err := database.LoadBooksFromJSON(cfg.SeedPath)
		if err != nil {
			log.Fatal(err)
		}
		n, err := database.SeedBooks(db, books)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("seeded %d books into %s", n, cfg.DBPath)
	} else {
		log.Printf("warn: %s not found; skip seeding (%v)", cfg.SeedPath, err)
	}

	circ := circulation.NewService(db)
	api := handlers.New(db, circ, []byte(cfg.JWTSecret), time.Duration(cfg.TokenTTL)*time.Hour)

	r := gin.Default()
	api.Register(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("HTTP API listening on %s", addr)
	log.Fatal(r.Run(addr))
}
