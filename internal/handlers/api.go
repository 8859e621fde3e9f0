package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"libraryhub/internal/auth"
	"libraryhub/internal/catalog"
	"libraryhub/internal/circulation"
	"libraryhub/internal/notify"
	"libraryhub/internal/user"
)

type API struct {
	db       *gorm.DB
	circ     *circulation.Service
	secret   []byte
	tokenTTL time.Duration
}

func New(db *gorm.DB, circ *circulation.Service, secret []byte, tokenTTL time.Duration) *API {
	return &API{db: db, circ: circ, secret: secret, tokenTTL: tokenTTL}
}

func (a *API) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	r.POST("/auth/register", a.handleRegister)
	r.POST("/auth/login", a.handleLogin)

	// Public catalog browsing.
	r.GET("/books", a.handleSearchBooks)
	r.GET("/books/:id", a.handleBookDetail)
	r.GET("/genres", a.handleListGenres)

	authed := r.Group("/")
	authed.Use(auth.RequireJWT(a.secret))

	patron := authed.Group("/", auth.Require(auth.PermCirculate))
	patron.POST("/borrowings", a.handleBorrow)
	patron.GET("/borrowings", a.handleMyBorrowings)
	patron.PUT("/borrowings/:id", a.handleBorrowingAction)
	patron.POST("/reservations", a.handleReserve)
	patron.GET("/reservations", a.handleMyReservations)
	patron.PUT("/reservations/:id", a.handleReservationAction)
	patron.GET("/fines", a.handleMyFines)
	patron.GET("/notifications", a.handleMyNotifications)
	patron.GET("/notifications/unread", a.handleUnreadCount)
	patron.PUT("/notifications/:id/read", a.handleMarkNotificationRead)

	cat := authed.Group("/", auth.Require(auth.PermManageCatalog))
	cat.POST("/books", a.handleCreateBook)
	cat.PUT("/books/:id", a.handleUpdateBook)
	cat.DELETE("/books/:id", a.handleDeleteBook)

	lib := authed.Group("/librarian", auth.Require(auth.PermManageLoans))
	lib.GET("/borrowings", a.handleAllBorrowings)
	lib.PUT("/borrowings/:id", a.handleLibrarianBorrowingAction)
	lib.GET("/reservations", a.handleAllReservations)
	lib.GET("/fines", a.handleAllFines)
	lib.PUT("/fines/:id", a.handleFineAction)

	admin := authed.Group("/admin", auth.Require(auth.PermManageUsers))
	admin.GET("/users", a.handleListUsers)
	admin.PUT("/users/:id", a.handleUpdateUser)
}

// errStatus maps domain sentinel errors to HTTP statuses; everything
// unmatched is a 500.
func errStatus(err error) int {
	switch {
	case errors.Is(err, circulation.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, notify.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, circulation.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, circulation.ErrOverdue),
		errors.Is(err, circulation.ErrRenewalLimit),
		errors.Is(err, user.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, circulation.ErrNoCopies),
		errors.Is(err, circulation.ErrDuplicateLoan),
		errors.Is(err, circulation.ErrNotActive),
		errors.Is(err, circulation.ErrSuspended),
		errors.Is(err, circulation.ErrReservationExists),
		errors.Is(err, circulation.ErrReservationClosed),
		errors.Is(err, circulation.ErrReservationNotReady),
		errors.Is(err, circulation.ErrReservationExpired),
		errors.Is(err, circulation.ErrFineExists),
		errors.Is(err, circulation.ErrFineSettled),
		errors.Is(err, catalog.ErrCopiesOut),
		errors.Is(err, user.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortErr(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
