package models

import "time"

type Role string

const (
	RoleUser      Role = "USER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipSuspended MembershipStatus = "SUSPENDED"
)

type BorrowingStatus string

const (
	BorrowingBorrowed BorrowingStatus = "BORROWED"
	BorrowingReturned BorrowingStatus = "RETURNED"
	BorrowingOverdue  BorrowingStatus = "OVERDUE"
	BorrowingLost     BorrowingStatus = "LOST"
	BorrowingDamaged  BorrowingStatus = "DAMAGED"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationReady     ReservationStatus = "READY"
	ReservationClaimed   ReservationStatus = "CLAIMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

type FineStatus string

const (
	FineUnpaid FineStatus = "UNPAID"
	FinePaid   FineStatus = "PAID"
	FineWaived FineStatus = "WAIVED"
)

type User struct {
	ID               string           `json:"id" gorm:"primaryKey"`
	Username         string           `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash     string           `json:"-" gorm:"not null"`
	Role             Role             `json:"role" gorm:"not null"`
	MembershipStatus MembershipStatus `json:"membership_status" gorm:"not null"`
	CreatedAt        time.Time        `json:"created_at"`
}

type Genre struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

type Book struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"not null"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn" gorm:"index"`
	GenreID         string    `json:"genre_id" gorm:"index"`
	Genre           *Genre    `json:"genre,omitempty" gorm:"foreignKey:GenreID"`
	PublishedYear   int       `json:"published_year"`
	Description     string    `json:"description"`
	TotalCopies     int       `json:"total_copies" gorm:"not null"`
	AvailableCopies int       `json:"available_copies" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Borrowing struct {
	ID           string          `json:"id" gorm:"primaryKey"`
	UserID       string          `json:"user_id" gorm:"index;not null"`
	BookID       string          `json:"book_id" gorm:"index;not null"`
	Book         *Book           `json:"book,omitempty" gorm:"foreignKey:BookID"`
	BorrowDate   time.Time       `json:"borrow_date"`
	DueDate      time.Time       `json:"due_date"`
	ReturnDate   *time.Time      `json:"return_date,omitempty"`
	Status       BorrowingStatus `json:"status" gorm:"index;not null"`
	RenewalCount int             `json:"renewal_count"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Reservation struct {
	ID              string            `json:"id" gorm:"primaryKey"`
	UserID          string            `json:"user_id" gorm:"index;not null"`
	BookID          string            `json:"book_id" gorm:"index;not null"`
	Book            *Book             `json:"book,omitempty" gorm:"foreignKey:BookID"`
	ReservationDate time.Time         `json:"reservation_date"`
	ExpiryDate      time.Time         `json:"expiry_date"`
	Status          ReservationStatus `json:"status" gorm:"index;not null"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type Fine struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"index;not null"`
	BorrowingID string     `json:"borrowing_id" gorm:"uniqueIndex;not null"`
	Amount      float64    `json:"amount" gorm:"not null"`
	Reason      string     `json:"reason"`
	Status      FineStatus `json:"status" gorm:"index;not null"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	ActionURL *string   `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
