package circulation

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libraryhub/internal/notify"
	"libraryhub/pkg/models"
)

// Borrow checks out one copy of a book to a user. The availability check,
// the duplicate-loan check and the copy decrement all happen inside one
// transaction.
func (s *Service) Borrow(userID, bookID string) (models.Borrowing, error) {
	now := s.now()
	var out models.Borrowing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.activeUser(tx, userID); err != nil {
			return err
		}

		var book models.Book
		if err := tx.First(&book, "id = ?", bookID).Error; err != nil {
			return notFoundOr(err)
		}
		if book.AvailableCopies <= 0 {
			return ErrNoCopies
		}

		var n int64
		err := tx.Model(&models.Borrowing{}).
			Where("user_id = ? AND book_id = ? AND status IN ?",
				userID, bookID,
				[]models.BorrowingStatus{models.BorrowingBorrowed, models.BorrowingOverdue}).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateLoan
		}

		out = models.Borrowing{
			ID:         uuid.NewString(),
			UserID:     userID,
			BookID:     bookID,
			BorrowDate: now,
			DueDate:    now.Add(LoanPeriod),
			Status:     models.BorrowingBorrowed,
		}
		if err := tx.Create(&out).Error; err != nil {
			return err
		}
		if err := tx.Model(&book).Update("available_copies", book.AvailableCopies-1).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("You borrowed %q. It is due on %s.", book.Title, out.DueDate.Format("2006-01-02"))
		return notify.Push(tx, userID, "Book borrowed", msg, notify.TypeBorrow, "/borrowings")
	})
	if err != nil {
		return models.Borrowing{}, err
	}
	return out, nil
}

// Renew extends an active loan by one loan period, at most MaxRenewals times.
// A renewal attempt on a loan already past its due date flips the record to
// OVERDUE and rejects.
func (s *Service) Renew(borrowingID, userID string) (models.Borrowing, error) {
	now := s.now()
	var out models.Borrowing
	var flipOverdueID string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b models.Borrowing
		if err := tx.First(&b, "id = ?", borrowingID).Error; err != nil {
			return notFoundOr(err)
		}
		if b.UserID != userID {
			return ErrNotOwner
		}
		if b.Status == models.BorrowingOverdue {
			return ErrOverdue
		}
		if b.Status != models.BorrowingBorrowed {
			return ErrNotActive
		}
		if b.DueDate.Before(now) {
			// The flip must survive the rejection; returning an error rolls
			// the transaction back, so it is written separately below.
			flipOverdueID = b.ID
			return ErrOverdue
		}
		if b.RenewalCount >= MaxRenewals {
			return ErrRenewalLimit
		}

		b.DueDate = b.DueDate.Add(LoanPeriod)
		b.RenewalCount++
		if err := tx.Model(&b).Updates(map[string]any{
			"due_date":      b.DueDate,
			"renewal_count": b.RenewalCount,
		}).Error; err != nil {
			return err
		}
		out = b

		msg := fmt.Sprintf("Loan renewed. New due date: %s.", b.DueDate.Format("2006-01-02"))
		return notify.Push(tx, userID, "Loan renewed", msg, notify.TypeRenewal, "/borrowings")
	})
	if flipOverdueID != "" {
		if uerr := s.db.Model(&models.Borrowing{}).Where("id = ?", flipOverdueID).
			Update("status", models.BorrowingOverdue).Error; uerr != nil {
			return models.Borrowing{}, uerr
		}
	}
	if err != nil {
		return models.Borrowing{}, err
	}
	return out, nil
}

// Return closes an active loan, restores the copy and promotes the oldest
// pending reservation on the book, if any. Pass an empty userID for
// librarian-side returns, which skip the ownership check.
func (s *Service) Return(borrowingID, userID, notes string) (models.Borrowing, error) {
	now := s.now()
	var out models.Borrowing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b models.Borrowing
		if err := tx.First(&b, "id = ?", borrowingID).Error; err != nil {
			return notFoundOr(err)
		}
		if userID != "" && b.UserID != userID {
			return ErrNotOwner
		}
		if b.Status != models.BorrowingBorrowed && b.Status != models.BorrowingOverdue {
			return ErrNotActive
		}

		updates := map[string]any{
			"status":      models.BorrowingReturned,
			"return_date": now,
		}
		if notes != "" {
			updates["notes"] = notes
		}
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return err
		}
		b.Status = models.BorrowingReturned
		b.ReturnDate = &now
		out = b

		var book models.Book
		if err := tx.First(&book, "id = ?", b.BookID).Error; err != nil {
			return notFoundOr(err)
		}
		if book.AvailableCopies < book.TotalCopies {
			if err := tx.Model(&book).Update("available_copies", book.AvailableCopies+1).Error; err != nil {
				return err
			}
		}

		msg := fmt.Sprintf("You returned %q. Thanks!", book.Title)
		if err := notify.Push(tx, b.UserID, "Book returned", msg, notify.TypeReturn, "/borrowings"); err != nil {
			return err
		}

		return s.promoteOldestPending(tx, book, now)
	})
	if err != nil {
		return models.Borrowing{}, err
	}
	return out, nil
}

// MarkOverdue flips an active loan to OVERDUE. Fine issuance is a separate
// librarian step.
func (s *Service) MarkOverdue(borrowingID string) (models.Borrowing, error) {
	return s.markStatus(borrowingID, models.BorrowingOverdue, "",
		"Loan overdue", "Your loan is overdue. Please return the book.",
		[]models.BorrowingStatus{models.BorrowingBorrowed})
}

// MarkLost records a lost copy. The copy is not restored to availability.
func (s *Service) MarkLost(borrowingID, notes string) (models.Borrowing, error) {
	return s.markStatus(borrowingID, models.BorrowingLost, notes,
		"Book marked lost", "Your borrowed book was marked as lost.",
		[]models.BorrowingStatus{models.BorrowingBorrowed, models.BorrowingOverdue})
}

// MarkDamaged records a damaged copy. The copy is not restored to availability.
func (s *Service) MarkDamaged(borrowingID, notes string) (models.Borrowing, error) {
	return s.markStatus(borrowingID, models.BorrowingDamaged, notes,
		"Book marked damaged", "Your borrowed book was marked as damaged.",
		[]models.BorrowingStatus{models.BorrowingBorrowed, models.BorrowingOverdue})
}

func (s *Service) markStatus(borrowingID string, to models.BorrowingStatus, notes, title, msg string, from []models.BorrowingStatus) (models.Borrowing, error) {
	var out models.Borrowing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b models.Borrowing
		if err := tx.First(&b, "id = ?", borrowingID).Error; err != nil {
			return notFoundOr(err)
		}
		ok := false
		for _, st := range from {
			if b.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return ErrNotActive
		}

		updates := map[string]any{"status": to}
		if notes != "" {
			updates["notes"] = notes
		}
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return err
		}
		b.Status = to
		out = b

		return notify.Push(tx, b.UserID, title, msg, notify.TypeBorrow, "/borrowings")
	})
	if err != nil {
		return models.Borrowing{}, err
	}
	return out, nil
}

// ListLoansForUser returns a user's borrowings, newest first, annotated with
// the overdue predicate.
func (s *Service) ListLoansForUser(userID string) ([]LoanInfo, error) {
	var rows []models.Borrowing
	err := s.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("borrow_date desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]LoanInfo, 0, len(rows))
	for _, b := range rows {
		out = append(out, s.annotate(b))
	}
	return out, nil
}

// ListLoans returns all borrowings, optionally filtered by status or by the
// overdue predicate (overdueOnly), for the librarian back office.
func (s *Service) ListLoans(status models.BorrowingStatus, overdueOnly bool) ([]LoanInfo, error) {
	q := s.db.Preload("Book").Order("borrow_date desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.Borrowing
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]LoanInfo, 0, len(rows))
	for _, b := range rows {
		info := s.annotate(b)
		if overdueOnly && !info.IsOverdue {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}
