package api

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/service"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

// CredentialsRequest is the body of register and login. Field rules are
// enforced by the service so rejections carry an auth code.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MeResponse identifies the bearer of a token.
type MeResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Register godoc
// @Summary Register a new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body CredentialsRequest true "Registration details"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} gin.H "invalid-email or weak-password"
// @Failure 409 {object} gin.H "email-in-use"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeBadRequest, "Request body must be JSON")
		return
	}

	token, user, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, "registration", err) // Maps the auth code to a status
		return
	}
	c.JSON(http.StatusCreated, TokenResponse{Token: token, User: MapUserToResponse(user)})
}

// Login godoc
// @Summary Log in a user
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} gin.H "invalid-credential"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeBadRequest, "Request body must be JSON")
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil { // Unknown email and wrong password look the same to the caller
		writeAuthError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token, User: MapUserToResponse(user)})
}

// Me echoes the identity carried by the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MeResponse{UserID: userID.Hex(), Email: c.GetString(ContextEmailKey)})
}

func writeAuthError(c *gin.Context, op string, err error) {
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		log.Printf("ERROR: Unexpected %s failure: %v", op, err)
		abortWithError(c, http.StatusInternalServerError, string(domain.AuthOther), "An unexpected error occurred")
		return
	}

	status := http.StatusInternalServerError
	switch authErr.Code {
	case domain.AuthEmailInUse:
		status = http.StatusConflict
	case domain.AuthInvalidEmail, domain.AuthWeakPassword:
		status = http.StatusBadRequest
	case domain.AuthInvalidCredential:
		status = http.StatusUnauthorized
	default:
		log.Printf("ERROR: %s failed: %v", op, err)
	}
	abortWithError(c, status, string(authErr.Code), authErr.Message())
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{} // Or handle error appropriately
	}
	return UserResponse{
		ID:        user.ID.Hex(),
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
