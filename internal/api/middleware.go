package api

import (
	"alcyxob/fitlist/internal/service"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
	ContextEmailKey  = "userEmail"
)

// Error codes returned next to the message in every error body. Auth
// failures use the domain.AuthCode values instead.
const (
	CodeBadRequest   = "bad-request"
	CodeValidation   = "validation"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not-found"
	CodeInternal     = "internal"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := authService.ParseToken(parts[1]) // Validates signature, expiry and issuer
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid token")
			}
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID) // Claims carry the hex form
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid token or missing claims")
			return
		}

		// Set user info in context for subsequent handlers
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextEmailKey, claims.Email)
		c.Next() // Proceed to the next handler
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("user ID not found in context")
	}
	id, ok := idRaw.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid user ID type in context")
	}
	return id, nil
}

// mustUserID writes a 500 and reports false when the middleware did not run.
func mustUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, CodeInternal, "Failed to get user ID from token")
		return userID, false
	}
	return userID, true
}
