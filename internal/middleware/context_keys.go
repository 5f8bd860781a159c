package middleware

import "github.com/gin-gonic/gin"

// userIDKey is the key used to store the authenticated user's ID.
const userIDKey = contextKey("userID")

// actorKey holds the name of the operator credential used on internal routes.
const actorKey = contextKey("actor")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		userIDVal = c.Request.Context().Value(userIDKey)
		if userIDVal == nil {
			return "", false
		}
	}

	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetActorFromContext returns the operator name set by APIKeyAuth.
func GetActorFromContext(c *gin.Context) string {
	return c.GetString(string(actorKey))
}
