package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftresume-backend-go/internal/core"
	"craftresume-backend-go/internal/middleware"
	"craftresume-backend-go/internal/models"
)

// UserHandler serves the signed-in user's profile.
type UserHandler struct {
	profiles core.ProfileService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(ps core.ProfileService) *UserHandler {
	return &UserHandler{profiles: ps}
}

// GetCurrentUserProfile handles GET /users/me. ?refetch=true bypasses the cache.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	state := middleware.AuthStateFrom(c)

	var res core.Result[*models.UserProfile]
	if c.Query("refetch") == "true" {
		res = h.profiles.Refetch(c.Request.Context(), state)
	} else {
		res = h.profiles.Profile(c.Request.Context(), state)
	}
	if res.Err != nil {
		writeError(c, res.Err, res.Notice)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SignOut handles POST /users/signout by dropping the cached profile.
func (h *UserHandler) SignOut(c *gin.Context) {
	if err := h.profiles.Clear(c.Request.Context(), middleware.AuthStateFrom(c)); err != nil {
		writeError(c, err, "")
		return
	}
	c.Status(http.StatusNoContent)
}
