package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libraryhub/pkg/models"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrCopiesOut = errors.New("book has copies out on loan")
)

// BookInput is the shape shared by create and update. Genre is a name and is
// resolved through FindOrCreateGenre.
type BookInput struct {
	Title         string
	Author        string
	ISBN          string
	Genre         string
	PublishedYear int
	Description   string
	TotalCopies   int
}

// FindOrCreateGenre resolves a genre by name, creating it when absent. Names
// are unique after trimming surrounding whitespace; lookups always go through
// here so the same name never yields two rows.
func FindOrCreateGenre(db *gorm.DB, name string) (models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Uncategorized"
	}
	g := models.Genre{ID: uuid.NewString(), Name: name}
	if err := db.Where("name = ?", name).FirstOrCreate(&g).Error; err != nil {
		return models.Genre{}, err
	}
	return g, nil
}

func ListGenres(db *gorm.DB) ([]models.Genre, error) {
	var out []models.Genre
	if err := db.Order("name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func Search(db *gorm.DB, q, genre, status string, limit, offset int) ([]models.Book, error) {
	query := db.Model(&models.Book{}).Preload("Genre")

	if q != "" {
		like := "%" + q + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", like, like)
	}
	if genre != "" {
		query = query.Joins("JOIN genres ON genres.id = books.genre_id").
			Where("genres.name = ?", genre)
	}
	if status == "available" {
		query = query.Where("available_copies > 0")
	}

	var res []models.Book
	if err := query.Order("title asc").Limit(limit).Offset(offset).Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func GetBook(db *gorm.DB, id string) (models.Book, error) {
	var b models.Book
	if err := db.Preload("Genre").First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Book{}, ErrNotFound
		}
		return models.Book{}, err
	}
	return b, nil
}

func CreateBook(db *gorm.DB, in BookInput) (models.Book, error) {
	var b models.Book
	err := db.Transaction(func(tx *gorm.DB) error {
		g, err := FindOrCreateGenre(tx, in.Genre)
		if err != nil {
			return err
		}
		b = models.Book{
			ID:              uuid.NewString(),
			Title:           in.Title,
			Author:          in.Author,
			ISBN:            in.ISBN,
			GenreID:         g.ID,
			PublishedYear:   in.PublishedYear,
			Description:     in.Description,
			TotalCopies:     in.TotalCopies,
			AvailableCopies: in.TotalCopies,
		}
		return tx.Create(&b).Error
	})
	if err != nil {
		return models.Book{}, err
	}
	return GetBook(db, b.ID)
}

// UpdateBook adjusts catalog fields. A change to TotalCopies shifts
// AvailableCopies by the same delta so copies on loan stay accounted for;
// shrinking below the number currently out is rejected.
func UpdateBook(db *gorm.DB, id string, in BookInput) (models.Book, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var b models.Book
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		g, err := FindOrCreateGenre(tx, in.Genre)
		if err != nil {
			return err
		}

		onLoan := b.TotalCopies - b.AvailableCopies
		if in.TotalCopies < onLoan {
			return ErrCopiesOut
		}

		return tx.Model(&b).Updates(map[string]any{
			"title":            in.Title,
			"author":           in.Author,
			"isbn":             in.ISBN,
			"genre_id":         g.ID,
			"published_year":   in.PublishedYear,
			"description":      in.Description,
			"total_copies":     in.TotalCopies,
			"available_copies": in.TotalCopies - onLoan,
		}).Error
	})
	if err != nil {
		return models.Book{}, err
	}
	return GetBook(db, id)
}

func DeleteBook(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var b models.Book
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if b.AvailableCopies < b.TotalCopies {
			return ErrCopiesOut
		}
		return tx.Delete(&b).Error
	})
}
