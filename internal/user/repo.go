package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"libraryhub/internal/notify"
	"libraryhub/pkg/models"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidValue       = errors.New("invalid value")
)

func Register(db *gorm.DB, username, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:               uuid.NewString(),
		Username:         username,
		PasswordHash:     string(hash),
		Role:             models.RoleUser,
		MembershipStatus: models.MembershipActive,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(&u).Error
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func VerifyLogin(db *gorm.DB, username, password string) (models.User, error) {
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func GetByID(db *gorm.DB, id string) (models.User, error) {
	var u models.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func List(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateRole(db *gorm.DB, id string, role models.Role) (models.User, error) {
	switch role {
	case models.RoleUser, models.RoleLibrarian, models.RoleAdmin:
	default:
		return models.User{}, fmt.Errorf("unknown role %q: %w", role, ErrInvalidValue)
	}
	var u models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = GetByID(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&u).Update("role", role).Error; err != nil {
			return err
		}
		u.Role = role
		return notify.Push(tx, u.ID, "Role updated", fmt.Sprintf("Your account role is now %s.", role), notify.TypeAccount, "")
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func UpdateMembership(db *gorm.DB, id string, status models.MembershipStatus) (models.User, error) {
	switch status {
	case models.MembershipActive, models.MembershipSuspended:
	default:
		return models.User{}, fmt.Errorf("unknown membership status %q: %w", status, ErrInvalidValue)
	}
	var u models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = GetByID(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&u).Update("membership_status", status).Error; err != nil {
			return err
		}
		u.MembershipStatus = status

		msg := "Your membership is active again."
		if status == models.MembershipSuspended {
			msg = "Your membership was suspended. Contact the library desk."
		}
		return notify.Push(tx, u.ID, "Membership updated", msg, notify.TypeAccount, "")
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
