package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/auth"
	"libraryhub/pkg/models"
)

func (a *API) handleReserve(c *gin.Context) {
	var req struct {
		BookID string `json:"book_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "book_id required"})
		return
	}
	userID := c.GetString(auth.CtxUserIDKey)

	r, err := a.circ.Reserve(userID, req.BookID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (a *API) handleMyReservations(c *gin.Context) {
	userID := c.GetString(auth.CtxUserIDKey)
	res, err := a.circ.ListReservationsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) handleReservationAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required,oneof=claim cancel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be claim or cancel"})
		return
	}
	id := c.Param("id")
	userID := c.GetString(auth.CtxUserIDKey)

	switch req.Action {
	case "claim":
		b, err := a.circ.Claim(id, userID)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	case "cancel":
		r, err := a.circ.Cancel(id, userID)
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func (a *API) handleAllReservations(c *gin.Context) {
	status := models.ReservationStatus(c.Query("status"))
	res, err := a.circ.ListReservations(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, res)
}
