package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/auth"
	"libraryhub/internal/notify"
)

func (a *API) handleMyNotifications(c *gin.Context) {
	userID := c.GetString(auth.CtxUserIDKey)
	list, err := notify.ListForUser(a.db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) handleUnreadCount(c *gin.Context) {
	userID := c.GetString(auth.CtxUserIDKey)
	n, err := notify.UnreadCount(a.db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

func (a *API) handleMarkNotificationRead(c *gin.Context) {
	userID := c.GetString(auth.CtxUserIDKey)
	if err := notify.MarkRead(a.db, c.Param("id"), userID); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
