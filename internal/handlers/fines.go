package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/auth"
	"libraryhub/pkg/models"
)

func (a *API) handleMyFines(c *gin.Context) {
	userID := c.GetString(auth.CtxUserIDKey)
	fines, err := a.circ.ListFinesForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, fines)
}

func (a *API) handleAllFines(c *gin.Context) {
	status := models.FineStatus(c.Query("status"))
	fines, err := a.circ.ListFines(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, fines)
}

func (a *API) handleFineAction(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required,oneof=mark_paid waive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be mark_paid or waive"})
		return
	}
	id := c.Param("id")

	var err error
	var f any
	switch req.Action {
	case "mark_paid":
		f, err = a.circ.PayFine(id)
	case "waive":
		f, err = a.circ.WaiveFine(id)
	}
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}
