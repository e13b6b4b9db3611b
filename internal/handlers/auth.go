package handlers

import (
	"net/http"

	"studyhub/internal/auth"

	"github.com/gin-gonic/gin"
)

// LoginHandler redirects to the Google OAuth consent screen
func LoginHandler(c *gin.Context) {
	url, err := auth.GetLoginURL(c)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate login URL", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallbackHandler processes the OAuth callback from Google
func GoogleCallbackHandler(c *gin.Context) {
	auth.HandleGoogleCallback(c)
}

// LogoutHandler deletes the session and clears the cookie
func LogoutHandler(c *gin.Context) {
	auth.DeleteSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// MeHandler reports the session's identity. needs_profile tells the
// frontend to show profile creation after a first Google sign-in.
func MeHandler(c *gin.Context) {
	username := c.GetString("username")
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"needs_profile": username == "",
		"username":      username,
		"email":         c.GetString("email"),
		"name":          c.GetString("name"),
		"picture":       c.GetString("picture"),
	})
}
