package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"studyhub/internal/database"
	"studyhub/internal/models"
	"studyhub/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var googleOAuthConfig *oauth2.Config

// InitOAuth initializes the Google OAuth configuration
func InitOAuth() error {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, and GOOGLE_REDIRECT_URL must be set")
	}

	googleOAuthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile", "openid"},
		Endpoint:     google.Endpoint,
	}

	return nil
}

// GetLoginURL returns the Google OAuth login URL with a secure state parameter
func GetLoginURL(c *gin.Context) (string, error) {
	state, err := SetOAuthState(c)
	if err != nil {
		return "", err
	}

	return googleOAuthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// HandleGoogleCallback processes the OAuth callback from Google.
// Existing accounts get a full session and land on the dashboard; first-time
// users get a profile-less session and land on profile creation.
func HandleGoogleCallback(c *gin.Context) {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}

	// Verify state parameter (CSRF protection)
	state := c.Query("state")
	if !VerifyOAuthState(c, state) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		c.Abort()
		return
	}

	// Exchange auth code for token
	code := c.Query("code")
	token, err := googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Printf("Error: oauth code exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "code exchange failed"})
		c.Abort()
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get id_token"})
		c.Abort()
		return
	}

	// Verify the ID token
	payload, err := verifyIDToken(rawIDToken, googleOAuthConfig.ClientID)
	if err != nil {
		log.Printf("Error: id_token verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify id_token"})
		c.Abort()
		return
	}

	userInfo := extractUserInfoFromPayload(payload)

	// Returning user: create a session bound to the existing profile
	var existingAccount models.Account
	db := database.GetDB()
	if err := db.Where("google_id = ?", userInfo.Sub).First(&existingAccount).Error; err == nil {
		if err := CreateSession(c, token, userInfo, existingAccount.Username); err != nil {
			log.Printf("Error: failed to create session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			c.Abort()
			return
		}

		recordLogin(c, existingAccount.Username)
		db.Model(&existingAccount).Update("last_login", time.Now())

		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/dashboard")
		return
	}

	// First sign-in: session without a username until the profile is created
	if err := CreateSession(c, token, userInfo, ""); err != nil {
		log.Printf("Error: failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		c.Abort()
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/create-profile")
}

func recordLogin(c *gin.Context, username string) {
	entry := models.LoginLog{
		Username:  username,
		IP:        utils.RealClientIP(c),
		UserAgent: utils.TruncateUserAgent(c.GetHeader("User-Agent")),
		CreatedAt: time.Now(),
	}
	if err := database.GetDB().Create(&entry).Error; err != nil {
		log.Printf("Warning: failed to record login for %s: %v", username, err)
	}
}

// verifyIDToken verifies the ID token using Google's official library
func verifyIDToken(idToken string, audience string) (*idtoken.Payload, error) {
	payload, err := idtoken.Validate(context.Background(), idToken, audience)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}
	return payload, nil
}

// extractUserInfoFromPayload extracts user info from the verified token payload
func extractUserInfoFromPayload(payload *idtoken.Payload) *UserInfo {
	userInfo := &UserInfo{Sub: payload.Subject}

	if email, ok := payload.Claims["email"].(string); ok {
		userInfo.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		userInfo.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		userInfo.Picture = picture
	}
	if givenName, ok := payload.Claims["given_name"].(string); ok {
		userInfo.GivenName = givenName
	}
	if familyName, ok := payload.Claims["family_name"].(string); ok {
		userInfo.FamilyName = familyName
	}
	if locale, ok := payload.Claims["locale"].(string); ok {
		userInfo.Locale = locale
	}
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok {
		userInfo.EmailVerified = emailVerified
	}

	return userInfo
}

// AuthMiddleware validates the session and puts the caller's identity
// into the request context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		// Keep the Google access token fresh; a failure here only matters
		// for Google API calls, not for our own session validity
		if err := RefreshSessionToken(c, session); err != nil {
			log.Printf("Warning: token refresh failed for session: %v", err)
		}

		if session.Username != "" {
			c.Set("username", session.Username)
		}
		c.Set("session_id", session.ID)
		c.Set("sub", session.UserID)
		c.Set("email", session.Email)
		c.Set("name", session.Name)
		c.Set("picture", session.Picture)

		c.Next()
	}
}

// Username returns the authenticated username from the request context,
// or the empty string when the session has no profile yet
func Username(c *gin.Context) string {
	return c.GetString("username")
}
