package auth

import "github.com/gin-gonic/gin"

// Keys under which AuthRequired stores the caller on the gin context.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

// SetUser records the authenticated staff member on c.
func SetUser(c *gin.Context, userID, email string) {
	c.Set(ContextUserID, userID)
	c.Set(ContextUserEmail, email)
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}

// ActorID is the user ID to stamp on records created by this request,
// or nil when the request is anonymous.
func ActorID(c *gin.Context) *string {
	id := GetUserID(c)
	if id == "" {
		return nil
	}
	return &id
}
