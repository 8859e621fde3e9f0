package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/auth"
	"libraryhub/pkg/models"
)

func (a *API) handleBorrow(c *gin.Context) {
	var req struct {
		BookID string `json:"book_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book_id required"})
		return
	}
	userID := c.GetString(auth.CtxUserIDKey)

	b, err := a.circ.Borrow(userID, req.BookID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (a *API) handleMyBorrowings(c *gin.Context) {
	userID := c.GetString(auth.CtxUserIDKey)
	loans, err := a.circ.ListLoansForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (a *API) handleBorrowingAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required,oneof=renew return"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be renew or return"})
		return
	}
	id := c.Param("id")
	userID := c.GetString(auth.CtxUserIDKey)

	switch req.Action {
	case "renew":
		b, err := a.circ.Renew(id, userID)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	case "return":
		b, err := a.circ.Return(id, userID, "")
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func (a *API) handleAllBorrowings(c *gin.Context) {
	status := models.BorrowingStatus(c.Query("status"))
	overdueOnly := c.Query("overdue") == "true"

	loans, err := a.circ.ListLoans(status, overdueOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (a *API) handleLibrarianBorrowingAction(c *gin.Context) {
	var req struct {
		Action string  `json:"action" binding:"required,oneof=return mark_overdue mark_lost mark_damaged issue_fine"`
		Notes  string  `json:"notes"`
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be one of return, mark_overdue, mark_lost, mark_damaged, issue_fine"})
		return
	}
	id := c.Param("id")

	switch req.Action {
	case "return":
		b, err := a.circ.Return(id, "", req.Notes)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	case "mark_overdue":
		b, err := a.circ.MarkOverdue(id)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	case "mark_lost":
		b, err := a.circ.MarkLost(id, req.Notes)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	case "mark_damaged":
		b, err := a.circ.MarkDamaged(id, req.Notes)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	case "issue_fine":
		if req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
			return
		}
		f, err := a.circ.IssueFine(id, req.Amount, req.Reason)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, f)
	}
}
