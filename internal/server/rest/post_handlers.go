package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fudbi/fudbi/internal/server/models"
)

type PostIDInput struct {
	PostID string `json:"postId" binding:"required"`
}

// ListPosts serves GET /api/posts?city=&status=&limit=.
func (e *Env) ListPosts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	posts, err := e.Posts.List(c.Request.Context(), c.Query("city"), models.PostStatus(c.Query("status")), limit)
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (e *Env) CreatePost(c *gin.Context) {
	var input models.NewPost
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	id, err := e.Posts.Create(c.Request.Context(), currentUser(c), &input)
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "postId": id})
}

func (e *Env) MyPosts(c *gin.Context) {
	posts, err := e.Posts.Mine(c.Request.Context(), currentUser(c))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (e *Env) GetPost(c *gin.Context) {
	detail, err := e.Posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (e *Env) CancelPost(c *gin.Context) {
	if err := e.Posts.Cancel(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (e *Env) AcceptPickup(c *gin.Context) {
	var input PostIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	pickupID, err := e.Pickups.Accept(c.Request.Context(), currentUser(c), input.PostID)
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pickupId": pickupID})
}

func (e *Env) UpdatePickup(c *gin.Context) {
	var input models.PickupUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	if err := e.Pickups.Update(c.Request.Context(), currentUser(c), &input); err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (e *Env) MyPickups(c *gin.Context) {
	posts, err := e.Pickups.Mine(c.Request.Context(), currentUser(c))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (e *Env) UserStats(c *gin.Context) {
	stats, err := e.Stats.User(c.Request.Context(), currentUser(c))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (e *Env) AdminStats(c *gin.Context) {
	stats, err := e.Stats.Admin(c.Request.Context(), currentUser(c))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (e *Env) AdminPosts(c *gin.Context) {
	posts, err := e.Posts.ListAll(c.Request.Context(), currentUser(c))
	if err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (e *Env) FlagPost(c *gin.Context) {
	var input PostIDInput
	if err := c.ShouldBindJSON(&input); err != nil {
		invalidInput(c, err)
		return
	}
	if err := e.Posts.Flag(c.Request.Context(), currentUser(c), input.PostID); err != nil {
		e.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
