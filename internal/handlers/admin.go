package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/user"
	"libraryhub/pkg/models"
)

func (a *API) handleListUsers(c *gin.Context) {
	users, err := user.List(a.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (a *API) handleUpdateUser(c *gin.Context) {
	var req struct {
		Role             string `json:"role"`
		MembershipStatus string `json:"membership_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Role == "" && req.MembershipStatus == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role or membership_status required"})
		return
	}
	id := c.Param("id")

	var (
		u   models.User
		err error
	)
	if req.Role != "" {
		u, err = user.UpdateRole(a.db, id, models.Role(req.Role))
		if err != nil {
			abortErr(c, err)
			return
		}
	}
	if req.MembershipStatus != "" {
		u, err = user.UpdateMembership(a.db, id, models.MembershipStatus(req.MembershipStatus))
		if err != nil {
			abortErr(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, u)
}
