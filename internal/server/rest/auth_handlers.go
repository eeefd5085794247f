package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/services"
)

type ConfirmInput struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type SignInInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// sessionUser is the public view of the signed-in account.
type sessionUser struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Phone    string      `json:"phone,omitempty"`
	City     string      `json:"city"`
	Role     models.Role `json:"role"`
	Verified bool        `json:"verified"`
}

func toSessionUser(u *models.User) sessionUser {
	return sessionUser{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Phone:    u.Phone,
		City:     u.City,
		Role:     u.Role,
		Verified: u.Verified,
	}
}

func invalidInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
}

func (e *Env) SignUp(c *gin.Context) {
	var input services.SignUpRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	if err := e.Auth.SignUp(c.Request.Context(), &input); err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"message":              services.MsgSignedUp,
		"requiresConfirmation": true,
	})
}

func (e *Env) Confirm(c *gin.Context) {
	var input ConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	if err := e.Auth.Confirm(c.Request.Context(), input.Email, input.Code); err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": services.MsgConfirmed})
}

func (e *Env) SignIn(c *gin.Context) {
	var input SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	token, user, err := e.Auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		e.fail(c, err)
		return
	}
	e.setSessionCookie(c, token, int(e.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"user": toSessionUser(user)})
}

func (e *Env) SignOut(c *gin.Context) {
	token, _ := c.Cookie(common.SessionCookieName)
	if err := e.Auth.SignOut(c.Request.Context(), token); err != nil {
		e.Logger.Warn(c.Request.Context(), "session revoke failed", "error", err)
	}
	e.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session reports the current user, or null for anonymous requests.
func (e *Env) Session(c *gin.Context) {
	uc := currentUser(c)
	if uc == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": uc})
}

func (e *Env) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, value, maxAge, "/", "", e.CookieSecure, true)
}
