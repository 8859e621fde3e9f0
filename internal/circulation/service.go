// Package circulation implements the loan, reservation and fine lifecycles.
// Every operation runs in a single database transaction; the store's
// isolation is the only concurrency control, matching a one-writer SQLite
// deployment.
package circulation

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"libraryhub/pkg/models"
)

const (
	LoanPeriod = 14 * 24 * time.Hour
	// MaxRenewals bounds Borrowing.RenewalCount.
	MaxRenewals = 2
	// ReadyPickupWindow is how long a promoted reservation stays claimable.
	ReadyPickupWindow = 3 * 24 * time.Hour
	// ReservationLifetime is the expiry horizon set when a reservation is placed.
	ReservationLifetime = 7 * 24 * time.Hour
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrSuspended           = errors.New("membership suspended")
	ErrNoCopies            = errors.New("no copies available")
	ErrDuplicateLoan       = errors.New("user already has this book on loan")
	ErrNotActive           = errors.New("borrowing is not active")
	ErrNotOwner            = errors.New("record belongs to another user")
	ErrRenewalLimit        = errors.New("renewal limit reached")
	ErrOverdue             = errors.New("borrowing is overdue")
	ErrReservationExists   = errors.New("user already has an active reservation for this book")
	ErrReservationClosed   = errors.New("reservation is not active")
	ErrReservationNotReady = errors.New("reservation is not ready for pickup")
	ErrReservationExpired  = errors.New("reservation has expired")
	ErrFineExists          = errors.New("borrowing already has a fine")
	ErrFineSettled         = errors.New("fine is already settled")
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// LoanInfo is a borrowing annotated with the read-time overdue predicate.
type LoanInfo struct {
	models.Borrowing
	IsOverdue   bool `json:"is_overdue"`
	DaysOverdue int  `json:"days_overdue"`
}

func (s *Service) annotate(b models.Borrowing) LoanInfo {
	info := LoanInfo{Borrowing: b}
	if b.Status == models.BorrowingBorrowed || b.Status == models.BorrowingOverdue {
		if now := s.now(); b.DueDate.Before(now) {
			info.IsOverdue = true
			info.DaysOverdue = int(now.Sub(b.DueDate) / (24 * time.Hour))
		}
	}
	return info
}

func (s *Service) activeUser(tx *gorm.DB, userID string) (models.User, error) {
	var u models.User
	if err := tx.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	if u.MembershipStatus == models.MembershipSuspended {
		return models.User{}, ErrSuspended
	}
	return u, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
