package circulation

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

var testBase = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := NewService(db)
	s.now = func() time.Time { return testBase }
	return s, db
}

func createUser(t *testing.T, db *gorm.DB, username string, status models.MembershipStatus) models.User {
	t.Helper()
	u := models.User{
		ID:               uuid.NewString(),
		Username:         username,
		PasswordHash:     "x",
		Role:             models.RoleUser,
		MembershipStatus: status,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func createBook(t *testing.T, db *gorm.DB, title string, copies int) models.Book {
	t.Helper()
	b := models.Book{
		ID:              uuid.NewString(),
		Title:           title,
		Author:          "Author",
		ISBN:            uuid.NewString(),
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}

func getBook(t *testing.T, db *gorm.DB, id string) models.Book {
	t.Helper()
	var b models.Book
	require.NoError(t, db.First(&b, "id = ?", id).Error)
	return b
}

func TestBorrowDecrementsAvailableCopies(t *testing.T) {
	s, db := newTestService(t)
	u := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 2)

	loan, err := s.Borrow(u.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.BorrowingBorrowed, loan.Status)
	require.Equal(t, testBase.Add(LoanPeriod), loan.DueDate)
	require.Zero(t, loan.RenewalCount)

	got := getBook(t, db, book.ID)
	require.Equal(t, 1, got.AvailableCopies)
	require.GreaterOrEqual(t, got.AvailableCopies, 0)
	require.LessOrEqual(t, got.AvailableCopies, got.TotalCopies)

	var n int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", u.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestBorrowErrors(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	eve := createUser(t, db, "eve", models.MembershipSuspended)
	book := createBook(t, db, "Dune", 1)

	_, err := s.Borrow(alice.ID, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Borrow(eve.ID, book.ID)
	require.ErrorIs(t, err, ErrSuspended)

	_, err = s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	_, err = s.Borrow(alice.ID, book.ID)
	require.ErrorIs(t, err, ErrDuplicateLoan)

	_, err = s.Borrow(bob.ID, book.ID)
	require.ErrorIs(t, err, ErrNoCopies)

	got := getBook(t, db, book.ID)
	require.Equal(t, 0, got.AvailableCopies)
}

func TestBorrowThenReturnRestoresAvailability(t *testing.T) {
	s, db := newTestService(t)
	u := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 3)

	loan, err := s.Borrow(u.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, 2, getBook(t, db, book.ID).AvailableCopies)

	returned, err := s.Return(loan.ID, u.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.BorrowingReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	require.Equal(t, 3, getBook(t, db, book.ID).AvailableCopies)

	// A second return of the same record is rejected and does not push the
	// availability above total.
	_, err = s.Return(loan.ID, u.ID, "")
	require.ErrorIs(t, err, ErrNotActive)
	require.Equal(t, 3, getBook(t, db, book.ID).AvailableCopies)
}

func TestRenewalLimit(t *testing.T) {
	s, db := newTestService(t)
	u := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(u.ID, book.ID)
	require.NoError(t, err)

	first, err := s.Renew(loan.ID, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.RenewalCount)
	require.Equal(t, loan.DueDate.Add(LoanPeriod), first.DueDate)

	second, err := s.Renew(loan.ID, u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, second.RenewalCount)

	_, err = s.Renew(loan.ID, u.ID)
	require.ErrorIs(t, err, ErrRenewalLimit)
}

func TestRenewOverdueFlipsStatus(t *testing.T) {
	s, db := newTestService(t)
	u := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(u.ID, book.ID)
	require.NoError(t, err)

	s.now = func() time.Time { return testBase.Add(LoanPeriod + 24*time.Hour) }

	_, err = s.Renew(loan.ID, u.ID)
	require.ErrorIs(t, err, ErrOverdue)

	// The flip is persisted even though the renewal itself was rejected,
	// and the rejected renewal leaves no other trace.
	var got models.Borrowing
	require.NoError(t, db.First(&got, "id = ?", loan.ID).Error)
	require.Equal(t, models.BorrowingOverdue, got.Status)
	require.True(t, got.DueDate.Equal(loan.DueDate))
	require.Zero(t, got.RenewalCount)

	// Once flipped, another renewal attempt still reports overdue.
	_, err = s.Renew(loan.ID, u.ID)
	require.ErrorIs(t, err, ErrOverdue)
}

func TestRenewChecksOwnership(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	_, err = s.Renew(loan.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestReserveReadyVersusPending(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	r, err := s.Reserve(alice.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationReady, r.Status)
	require.Equal(t, testBase.Add(ReservationLifetime), r.ExpiryDate)

	// Take the last copy off the shelf, then a reservation waits.
	_, err = s.Borrow(bob.ID, book.ID)
	require.NoError(t, err)

	carol := createUser(t, db, "carol", models.MembershipActive)
	r2, err := s.Reserve(carol.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, r2.Status)
}

func TestReserveConflicts(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 2)

	_, err := s.Reserve(alice.ID, book.ID)
	require.NoError(t, err)

	_, err = s.Reserve(alice.ID, book.ID)
	require.ErrorIs(t, err, ErrReservationExists)

	bob := createUser(t, db, "bob", models.MembershipActive)
	_, err = s.Borrow(bob.ID, book.ID)
	require.NoError(t, err)
	_, err = s.Reserve(bob.ID, book.ID)
	require.ErrorIs(t, err, ErrDuplicateLoan)
}

func TestReturnPromotesOldestPendingReservation(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	carol := createUser(t, db, "carol", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	rBob, err := s.Reserve(bob.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, rBob.Status)

	s.now = func() time.Time { return testBase.Add(time.Hour) }
	rCarol, err := s.Reserve(carol.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, rCarol.Status)

	returnTime := testBase.Add(2 * time.Hour)
	s.now = func() time.Time { return returnTime }
	_, err = s.Return(loan.ID, alice.ID, "")
	require.NoError(t, err)

	var promoted models.Reservation
	require.NoError(t, db.First(&promoted, "id = ?", rBob.ID).Error)
	require.Equal(t, models.ReservationReady, promoted.Status)
	require.Equal(t, returnTime.Add(ReadyPickupWindow), promoted.ExpiryDate)

	var waiting models.Reservation
	require.NoError(t, db.First(&waiting, "id = ?", rCarol.ID).Error)
	require.Equal(t, models.ReservationPending, waiting.Status)

	require.Equal(t, 1, getBook(t, db, book.ID).AvailableCopies)
}

func TestClaimCreatesBorrowing(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	r, err := s.Reserve(alice.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationReady, r.Status)

	loan, err := s.Claim(r.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, models.BorrowingBorrowed, loan.Status)
	require.Equal(t, testBase.Add(LoanPeriod), loan.DueDate)

	var got models.Reservation
	require.NoError(t, db.First(&got, "id = ?", r.ID).Error)
	require.Equal(t, models.ReservationClaimed, got.Status)
	require.Equal(t, 0, getBook(t, db, book.ID).AvailableCopies)

	_, err = s.Claim(r.ID, alice.ID)
	require.ErrorIs(t, err, ErrReservationNotReady)
}

func TestClaimExpiredReservation(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	r, err := s.Reserve(alice.ID, book.ID)
	require.NoError(t, err)

	s.now = func() time.Time { return testBase.Add(ReservationLifetime + time.Hour) }

	_, err = s.Claim(r.ID, alice.ID)
	require.ErrorIs(t, err, ErrReservationExpired)

	// The EXPIRED mark is persisted even though the claim was rejected, and
	// the rejected claim took nothing off the shelf.
	var got models.Reservation
	require.NoError(t, db.First(&got, "id = ?", r.ID).Error)
	require.Equal(t, models.ReservationExpired, got.Status)
	require.Equal(t, 1, getBook(t, db, book.ID).AvailableCopies)

	var loans int64
	require.NoError(t, db.Model(&models.Borrowing{}).Where("user_id = ?", alice.ID).Count(&loans).Error)
	require.Zero(t, loans)
}

func TestClaimRevalidatesAvailability(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	r, err := s.Reserve(alice.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationReady, r.Status)

	// Someone else walks off with the last copy before the claim.
	_, err = s.Borrow(bob.ID, book.ID)
	require.NoError(t, err)

	_, err = s.Claim(r.ID, alice.ID)
	require.ErrorIs(t, err, ErrNoCopies)
}

func TestCancelReservationDoesNotPromote(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	carol := createUser(t, db, "carol", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	_, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	rBob, err := s.Reserve(bob.ID, book.ID)
	require.NoError(t, err)
	s.now = func() time.Time { return testBase.Add(time.Hour) }
	rCarol, err := s.Reserve(carol.ID, book.ID)
	require.NoError(t, err)

	cancelled, err := s.Cancel(rBob.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationCancelled, cancelled.Status)

	// Promotion only happens on return, so the queue does not move.
	var got models.Reservation
	require.NoError(t, db.First(&got, "id = ?", rCarol.ID).Error)
	require.Equal(t, models.ReservationPending, got.Status)

	_, err = s.Cancel(rBob.ID, bob.ID)
	require.ErrorIs(t, err, ErrReservationClosed)
}

func TestIssueFineOncePerBorrowing(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	f, err := s.IssueFine(loan.ID, 5.50, "late return")
	require.NoError(t, err)
	require.Equal(t, models.FineUnpaid, f.Status)
	require.Equal(t, alice.ID, f.UserID)

	_, err = s.IssueFine(loan.ID, 3.00, "again")
	require.ErrorIs(t, err, ErrFineExists)

	_, err = s.IssueFine("nope", 3.00, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPayAndWaiveFines(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 2)

	loan1, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)
	f1, err := s.IssueFine(loan1.ID, 5, "late")
	require.NoError(t, err)

	paid, err := s.PayFine(f1.ID)
	require.NoError(t, err)
	require.Equal(t, models.FinePaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	require.Equal(t, testBase, *paid.PaidDate)

	_, err = s.PayFine(f1.ID)
	require.ErrorIs(t, err, ErrFineSettled)
	_, err = s.WaiveFine(f1.ID)
	require.ErrorIs(t, err, ErrFineSettled)

	_, err = s.Return(loan1.ID, alice.ID, "")
	require.NoError(t, err)
	loan2, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)
	f2, err := s.IssueFine(loan2.ID, 2, "damaged cover")
	require.NoError(t, err)

	waived, err := s.WaiveFine(f2.ID)
	require.NoError(t, err)
	require.Equal(t, models.FineWaived, waived.Status)
	require.Nil(t, waived.PaidDate)
}

func TestMarkLostAndDamagedKeepCopyOut(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	book := createBook(t, db, "Dune", 2)

	loanA, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)
	loanB, err := s.Borrow(bob.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, 0, getBook(t, db, book.ID).AvailableCopies)

	lost, err := s.MarkLost(loanA.ID, "patron reported lost")
	require.NoError(t, err)
	require.Equal(t, models.BorrowingLost, lost.Status)
	require.Equal(t, 0, getBook(t, db, book.ID).AvailableCopies)

	damaged, err := s.MarkDamaged(loanB.ID, "water damage")
	require.NoError(t, err)
	require.Equal(t, models.BorrowingDamaged, damaged.Status)
	require.Equal(t, 0, getBook(t, db, book.ID).AvailableCopies)

	// Terminal records cannot be returned.
	_, err = s.Return(loanA.ID, alice.ID, "")
	require.ErrorIs(t, err, ErrNotActive)
}

func TestMarkOverdue(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	marked, err := s.MarkOverdue(loan.ID)
	require.NoError(t, err)
	require.Equal(t, models.BorrowingOverdue, marked.Status)

	_, err = s.MarkOverdue(loan.ID)
	require.ErrorIs(t, err, ErrNotActive)

	// No fine is created as a side effect.
	var n int64
	require.NoError(t, db.Model(&models.Fine{}).Count(&n).Error)
	require.Zero(t, n)

	// An overdue loan can still be returned.
	returned, err := s.Return(loan.ID, alice.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.BorrowingReturned, returned.Status)
	require.Equal(t, 1, getBook(t, db, book.ID).AvailableCopies)
}

func TestOverdueAnnotation(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	_, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)

	loans, err := s.ListLoansForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.False(t, loans[0].IsOverdue)

	s.now = func() time.Time { return testBase.Add(LoanPeriod + 3*24*time.Hour + time.Hour) }

	loans, err = s.ListLoansForUser(alice.ID)
	require.NoError(t, err)
	require.True(t, loans[0].IsOverdue)
	require.Equal(t, 3, loans[0].DaysOverdue)

	all, err := s.ListLoans("", true)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

// The end-to-end last-copy scenario: borrow the only copy, queue a second
// patron, return, and check the hand-off.
func TestLastCopyReservationScenario(t *testing.T) {
	s, db := newTestService(t)
	alice := createUser(t, db, "alice", models.MembershipActive)
	bob := createUser(t, db, "bob", models.MembershipActive)
	book := createBook(t, db, "Dune", 1)

	loan, err := s.Borrow(alice.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, 0, getBook(t, db, book.ID).AvailableCopies)

	r, err := s.Reserve(bob.ID, book.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationPending, r.Status)

	returnTime := testBase.Add(24 * time.Hour)
	s.now = func() time.Time { return returnTime }
	_, err = s.Return(loan.ID, alice.ID, "")
	require.NoError(t, err)

	require.Equal(t, 1, getBook(t, db, book.ID).AvailableCopies)

	var promoted models.Reservation
	require.NoError(t, db.First(&promoted, "id = ?", r.ID).Error)
	require.Equal(t, models.ReservationReady, promoted.Status)
	require.Equal(t, returnTime.Add(ReadyPickupWindow), promoted.ExpiryDate)

	// Bob claims and the copy goes straight back out.
	claimed, err := s.Claim(r.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, models.BorrowingBorrowed, claimed.Status)
	require.Equal(t, 0, getBook(t, db, book.ID).AvailableCopies)
}

func TestSuspendedMemberCannotCirculate(t *testing.T) {
	s, db := newTestService(t)
	eve := createUser(t, db, "eve", models.MembershipSuspended)
	book := createBook(t, db, "Dune", 1)

	_, err := s.Borrow(eve.ID, book.ID)
	require.ErrorIs(t, err, ErrSuspended)
	_, err = s.Reserve(eve.ID, book.ID)
	require.ErrorIs(t, err, ErrSuspended)
}
