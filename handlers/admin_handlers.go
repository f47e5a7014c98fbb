package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pastprep-server/models"
	"pastprep-server/store"
)

// AdminDashboard renders the admin dashboard with user metrics and the
// most recent signups.
// GET /admin/dashboard
func AdminDashboard(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := st.ListUsers(c.Request.Context())
		if err != nil {
			log.Printf("Error fetching users for dashboard: %v", err)
			users = nil
		}

		banned := 0
		for _, u := range users {
			if u.IsBanned {
				banned++
			}
		}
		recent := users
		if len(recent) > 5 {
			recent = recent[:5]
		}

		c.HTML(http.StatusOK, "admin_dashboard", gin.H{
			"Title":       "PastPrep Admin Dashboard",
			"TotalUsers":  len(users),
			"BannedUsers": banned,
			"RecentUsers": recent,
			"UserEmail":   c.GetString("user_email"),
		})
	}
}

// AdminUsersPage renders the full user table.
// GET /admin/users/page
func AdminUsersPage(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := st.ListUsers(c.Request.Context())
		if err != nil {
			log.Printf("Error fetching users: %v", err)
			users = nil
		}
		c.HTML(http.StatusOK, "admin_users", gin.H{
			"Title":     "PastPrep Users",
			"Users":     users,
			"UserEmail": c.GetString("user_email"),
		})
	}
}

// AdminListUsers returns every profile as JSON.
// GET /admin/users
func AdminListUsers(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := st.ListUsers(c.Request.Context())
		if err != nil {
			writeStoreError(c, err, "listing users")
			return
		}
		if users == nil {
			users = []models.User{}
		}
		c.JSON(http.StatusOK, users)
	}
}

// AdminSetBan bans or unbans an account. The designated admin account can
// never be banned.
func AdminSetBan(st store.Store, adminEmail string, banned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")
		if strings.EqualFold(email, adminEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The admin account cannot be banned"})
			return
		}
		if err := st.SetUserBanned(c.Request.Context(), email, banned); err != nil {
			writeStoreError(c, err, "updating ban state")
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": email, "banned": banned})
	}
}

// AdminDeleteUser hard-deletes a profile; the designated admin account is
// protected.
// DELETE /admin/users/:email
func AdminDeleteUser(st store.Store, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")
		if strings.EqualFold(email, adminEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The admin account cannot be deleted"})
			return
		}
		if err := st.DeleteUser(c.Request.Context(), email); err != nil {
			writeStoreError(c, err, "deleting user")
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": email, "deleted": true})
	}
}
