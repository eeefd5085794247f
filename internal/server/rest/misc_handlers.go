package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PushTokenInput struct {
	Token string `json:"token"`
}

type PresignInput struct {
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required"`
}

// RegisterPushToken stores the caller's push address; an empty token
// unregisters it.
func (e *Env) RegisterPushToken(c *gin.Context) {
	var input PushTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	if err := e.Notifications.Register(c.Request.Context(), currentUser(c), input.Token); err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (e *Env) PresignUpload(c *gin.Context) {
	var input PresignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	target, err := e.Media.PresignUpload(c.Request.Context(), currentUser(c), input.ContentType, input.Size)
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// Image redirects to a short-lived download URL for ?key=.
func (e *Env) Image(c *gin.Context) {
	url, err := e.Media.PresignDownload(c.Request.Context(), c.Query("key"))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (e *Env) ServeWS(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
		return
	}
	if err := e.Feed.ServeWS(c.Writer, c.Request, city); err != nil {
		e.Logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
	}
}

func (e *Env) Healthz(c *gin.Context) {
	if err := e.Store.Ping(c.Request.Context()); err != nil {
		e.Logger.Error(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
