package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pastprep-server/models"
	"pastprep-server/store"
	"pastprep-server/utils"
)

// IdentityClaims are the fields decoded from the Google ID token.
type IdentityClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// DecodeIdentityToken decodes the ID token and checks expiry and audience
// locally. There is no server-side session: every request carries the
// token, and an expired one forces the client to log out.
func DecodeIdentityToken(tokenString, clientID string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errors.New("token carries no email claim")
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, jwt.ErrTokenExpired
	}
	if clientID != "" && !utils.ContainsString(claims.Audience, clientID) {
		return nil, errors.New("token audience mismatch")
	}
	return claims, nil
}

// RoleFor derives the role from identity: the single designated admin
// email is permanently the Admin, everyone else is a plain user.
func RoleFor(email, adminEmail string) string {
	if adminEmail != "" && strings.EqualFold(email, adminEmail) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// AuthMiddleware decodes the bearer ID token, rejects banned users, and
// sets user identity and role on the request context.
func AuthMiddleware(st store.Store, clientID, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.ToLower(parts[0]) == "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := DecodeIdentityToken(parts[1], clientID)
		if err != nil {
			log.Printf("Identity token rejected: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// Profiles are created by the login upsert; a request before first
		// login simply has no stored state to check.
		if user, err := st.GetUser(c.Request.Context(), claims.Email); err == nil && user.IsBanned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
			return
		}

		c.Set("user_email", claims.Email)
		c.Set("user_name", claims.Name)
		c.Set("user_picture", claims.Picture)
		c.Set("user_role", RoleFor(claims.Email, adminEmail))
		c.Next()
	}
}

// RequireAdmin gates the admin surface on the derived role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_role") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// Logger middleware for request logging
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := time.Now()
		c.Next()
		latency := time.Since(t)
		log.Printf("[PASTPREP] %s %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Request.Proto, c.Writer.Status(), latency)
	}
}
