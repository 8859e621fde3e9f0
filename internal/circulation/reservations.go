package circulation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"libraryhub/internal/notify"
	"libraryhub/pkg/models"
)

var activeReservationStatuses = []models.ReservationStatus{
	models.ReservationPending,
	models.ReservationReady,
}

// Reserve places a hold on a book. The reservation is READY immediately when
// a copy is on the shelf, otherwise PENDING until a return promotes it.
func (s *Service) Reserve(userID, bookID string) (models.Reservation, error) {
	now := s.now()
	var out models.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.activeUser(tx, userID); err != nil {
			return err
		}

		var book models.Book
		if err := tx.First(&book, "id = ?", bookID).Error; err != nil {
			return notFoundOr(err)
		}

		var n int64
		err := tx.Model(&models.Reservation{}).
			Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, activeReservationStatuses).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrReservationExists
		}

		err = tx.Model(&models.Borrowing{}).
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

		status := models.ReservationPending
		if book.AvailableCopies > 0 {
			status = models.ReservationReady
		}
		out = models.Reservation{
			ID:              uuid.NewString(),
			UserID:          userID,
			BookID:          bookID,
			ReservationDate: now,
			ExpiryDate:      now.Add(ReservationLifetime),
			Status:          status,
		}
		if err := tx.Create(&out).Error; err != nil {
			return err
		}

		title := "Reservation placed"
		msg := fmt.Sprintf("You joined the queue for %q. We will notify you when a copy is available.", book.Title)
		if status == models.ReservationReady {
			title = "Reservation ready"
			msg = fmt.Sprintf("%q is ready for pickup. Claim it by %s.", book.Title, out.ExpiryDate.Format("2006-01-02"))
		}
		return notify.Push(tx, userID, title, msg, notify.TypeReservation, "/reservations")
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return out, nil
}

// Claim converts a READY reservation into a borrowing. Availability is
// re-checked inside the transaction so two claims cannot both take the last
// copy; an expired READY reservation is marked EXPIRED and the claim rejects.
func (s *Service) Claim(reservationID, userID string) (models.Borrowing, error) {
	now := s.now()
	var out models.Borrowing
	var markExpiredID string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.activeUser(tx, userID); err != nil {
			return err
		}

		var r models.Reservation
		if err := tx.First(&r, "id = ?", reservationID).Error; err != nil {
			return notFoundOr(err)
		}
		if r.UserID != userID {
			return ErrNotOwner
		}
		if r.Status != models.ReservationReady {
			return ErrReservationNotReady
		}
		if r.ExpiryDate.Before(now) {
			// The EXPIRED mark must survive the rejection; returning an
			// error rolls the transaction back, so it is written separately
			// below.
			markExpiredID = r.ID
			return ErrReservationExpired
		}

		var book models.Book
		if err := tx.First(&book, "id = ?", r.BookID).Error; err != nil {
			return notFoundOr(err)
		}
		if book.AvailableCopies <= 0 {
			return ErrNoCopies
		}

		var n int64
		err := tx.Model(&models.Borrowing{}).
			Where("user_id = ? AND book_id = ? AND status IN ?",
				userID, r.BookID,
				[]models.BorrowingStatus{models.BorrowingBorrowed, models.BorrowingOverdue}).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateLoan
		}

		if err := tx.Model(&r).Update("status", models.ReservationClaimed).Error; err != nil {
			return err
		}
		out = models.Borrowing{
			ID:         uuid.NewString(),
			UserID:     userID,
			BookID:     r.BookID,
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

		msg := fmt.Sprintf("You claimed your reservation for %q. It is due on %s.", book.Title, out.DueDate.Format("2006-01-02"))
		return notify.Push(tx, userID, "Reservation claimed", msg, notify.TypeReservation, "/borrowings")
	})
	if markExpiredID != "" {
		if uerr := s.db.Model(&models.Reservation{}).Where("id = ?", markExpiredID).
			Update("status", models.ReservationExpired).Error; uerr != nil {
			return models.Borrowing{}, uerr
		}
	}
	if err != nil {
		return models.Borrowing{}, err
	}
	return out, nil
}

// Cancel closes a PENDING or READY reservation. Cancellation does not promote
// the next reservation in the queue; promotion only happens on return.
func (s *Service) Cancel(reservationID, userID string) (models.Reservation, error) {
	var out models.Reservation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var r models.Reservation
		if err := tx.First(&r, "id = ?", reservationID).Error; err != nil {
			return notFoundOr(err)
		}
		if r.UserID != userID {
			return ErrNotOwner
		}
		if r.Status != models.ReservationPending && r.Status != models.ReservationReady {
			return ErrReservationClosed
		}
		if err := tx.Model(&r).Update("status", models.ReservationCancelled).Error; err != nil {
			return err
		}
		r.Status = models.ReservationCancelled
		out = r

		return notify.Push(tx, userID, "Reservation cancelled", "Your reservation was cancelled.", notify.TypeReservation, "/reservations")
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return out, nil
}

// promoteOldestPending moves the head of the book's FIFO hold queue to READY
// with a short pickup window. Called from Return inside its transaction.
func (s *Service) promoteOldestPending(tx *gorm.DB, book models.Book, now time.Time) error {
	var pending []models.Reservation
	err := tx.Where("book_id = ? AND status = ?", book.ID, models.ReservationPending).
		Order("reservation_date asc").
		Limit(1).
		Find(&pending).Error
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	r := pending[0]
	expiry := now.Add(ReadyPickupWindow)
	err = tx.Model(&r).Updates(map[string]any{
		"status":      models.ReservationReady,
		"expiry_date": expiry,
	}).Error
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("%q is ready for pickup. Claim it by %s.", book.Title, expiry.Format("2006-01-02"))
	return notify.Push(tx, r.UserID, "Reservation ready", msg, notify.TypeReservation, "/reservations")
}

// ListReservationsForUser returns a user's reservations, newest first.
func (s *Service) ListReservationsForUser(userID string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("reservation_date desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListReservations returns all reservations, optionally filtered by status,
// for the librarian back office.
func (s *Service) ListReservations(status models.ReservationStatus) ([]models.Reservation, error) {
	q := s.db.Preload("Book").Order("reservation_date asc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Reservation
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
