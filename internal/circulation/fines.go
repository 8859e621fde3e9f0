package circulation

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libraryhub/internal/notify"
	"libraryhub/pkg/models"
)

// IssueFine attaches a fine to a borrowing. A borrowing carries at most one
// fine for its whole life.
func (s *Service) IssueFine(borrowingID string, amount float64, reason string) (models.Fine, error) {
	var out models.Fine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b models.Borrowing
		if err := tx.First(&b, "id = ?", borrowingID).Error; err != nil {
			return notFoundOr(err)
		}

		var n int64
		if err := tx.Model(&models.Fine{}).Where("borrowing_id = ?", borrowingID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrFineExists
		}

		out = models.Fine{
			ID:          uuid.NewString(),
			UserID:      b.UserID,
			BorrowingID: borrowingID,
			Amount:      amount,
			Reason:      reason,
			Status:      models.FineUnpaid,
		}
		if err := tx.Create(&out).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("A fine of %.2f was issued: %s", amount, reason)
		return notify.Push(tx, b.UserID, "Fine issued", msg, notify.TypeFine, "/fines")
	})
	if err != nil {
		return models.Fine{}, err
	}
	return out, nil
}

// PayFine settles an unpaid fine.
func (s *Service) PayFine(fineID string) (models.Fine, error) {
	return s.settleFine(fineID, models.FinePaid, "Fine paid", "Your fine was marked as paid.")
}

// WaiveFine forgives an unpaid fine.
func (s *Service) WaiveFine(fineID string) (models.Fine, error) {
	return s.settleFine(fineID, models.FineWaived, "Fine waived", "Your fine was waived.")
}

func (s *Service) settleFine(fineID string, to models.FineStatus, title, msg string) (models.Fine, error) {
	now := s.now()
	var out models.Fine
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var f models.Fine
		if err := tx.First(&f, "id = ?", fineID).Error; err != nil {
			return notFoundOr(err)
		}
		if f.Status != models.FineUnpaid {
			return ErrFineSettled
		}

		updates := map[string]any{"status": to}
		if to == models.FinePaid {
			updates["paid_date"] = now
		}
		if err := tx.Model(&f).Updates(updates).Error; err != nil {
			return err
		}
		f.Status = to
		if to == models.FinePaid {
			f.PaidDate = &now
		}
		out = f

		return notify.Push(tx, f.UserID, title, msg, notify.TypeFine, "/fines")
	})
	if err != nil {
		return models.Fine{}, err
	}
	return out, nil
}

// ListFinesForUser returns a user's fines, newest first.
func (s *Service) ListFinesForUser(userID string) ([]models.Fine, error) {
	var out []models.Fine
	err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListFines returns all fines, optionally filtered by status.
func (s *Service) ListFines(status models.FineStatus) ([]models.Fine, error) {
	q := s.db.Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Fine
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
