package notify

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libraryhub/pkg/models"
)

var ErrNotFound = errors.New("notification not found")

// Notification types surfaced to clients alongside the message text.
const (
	TypeBorrow      = "BORROW"
	TypeReturn      = "RETURN"
	TypeRenewal     = "RENEWAL"
	TypeReservation = "RESERVATION"
	TypeFine        = "FINE"
	TypeAccount     = "ACCOUNT"
)

// Push appends one notification row. Callers inside a business transaction
// pass their tx so the row commits or rolls back with the transition itself.
func Push(tx *gorm.DB, userID, title, message, ntype, actionURL string) error {
	n := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
	}
	if actionURL != "" {
		n.ActionURL = &actionURL
	}
	return tx.Create(&n).Error
}

func ListForUser(db *gorm.DB, userID string) ([]models.Notification, error) {
	var out []models.Notification
	if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func UnreadCount(db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func MarkRead(db *gorm.DB, id, userID string) error {
	res := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
