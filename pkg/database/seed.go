package database

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libraryhub/pkg/models"
)

// SeedBook is the shape of one entry in data/books.json.
type SeedBook struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"published_year"`
	Description   string `json:"description"`
	TotalCopies   int    `json:"total_copies"`
}

func LoadBooksFromJSON(jsonPath string) ([]SeedBook, error) {
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read books json: %w", err)
	}

	var list []SeedBook
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("unmarshal books json: %w", err)
	}
	return list, nil
}

// SeedBooks inserts catalog entries that are not present yet, keyed by ISBN.
// Reruns are safe: existing books are left untouched.
func SeedBooks(db *gorm.DB, list []SeedBook) (int, error) {
	inserted := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, sb := range list {
			if sb.ISBN != "" {
				var n int64
				if err := tx.Model(&models.Book{}).Where("isbn = ?", sb.ISBN).Count(&n).Error; err != nil {
					return fmt.Errorf("check isbn %s: %w", sb.ISBN, err)
				}
				if n > 0 {
					continue
				}
			}

			genreName := strings.TrimSpace(sb.Genre)
			if genreName == "" {
				genreName = "Uncategorized"
			}
			genre := models.Genre{ID: uuid.NewString(), Name: genreName}
			if err := tx.Where("name = ?", genreName).FirstOrCreate(&genre).Error; err != nil {
				return fmt.Errorf("genre %s: %w", genreName, err)
			}

			copies := sb.TotalCopies
			if copies <= 0 {
				copies = 1
			}
			book := models.Book{
				ID:              uuid.NewString(),
				Title:           sb.Title,
				Author:          sb.Author,
				ISBN:            sb.ISBN,
				GenreID:         genre.ID,
				PublishedYear:   sb.PublishedYear,
				Description:     sb.Description,
				TotalCopies:     copies,
				AvailableCopies: copies,
			}
			if err := tx.Create(&book).Error; err != nil {
				return fmt.Errorf("insert book %q: %w", sb.Title, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
