package service

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/observability"
	"alcyxob/fitlist/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid or expired token")
)

// Claims is the JWT payload issued on sign-in.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService issues and checks identities. Rejections are *domain.AuthError
// wrapping one of the sentinel errors above.
type AuthService interface {
	Register(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ParseToken(token string) (*Claims, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	validate      *validator.Validate
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		validate:      validator.New(),
	}
}

// Register creates an account and signs it in.
func (s *authService) Register(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	defer func() { observability.AuthAttempt("register", err) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if s.validate.Var(email, "required,email") != nil {
		return "", nil, &domain.AuthError{Code: domain.AuthInvalidEmail}
	}
	if len(password) < MinPasswordLength {
		return "", nil, &domain.AuthError{Code: domain.AuthWeakPassword}
	}

	_, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, &domain.AuthError{Code: domain.AuthEmailInUse, Err: ErrUserAlreadyExists}
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, &domain.AuthError{Code: domain.AuthOther, Err: err}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, &domain.AuthError{Code: domain.AuthOther, Err: ErrHashingFailed}
	}

	user = &domain.User{Email: email, PasswordHash: string(hashedPassword)}
	if _, err = s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email
		if errors.Is(err, repository.ErrDuplicate) {
			return "", nil, &domain.AuthError{Code: domain.AuthEmailInUse, Err: ErrUserAlreadyExists}
		}
		return "", nil, &domain.AuthError{Code: domain.AuthOther, Err: err}
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, &domain.AuthError{Code: domain.AuthOther, Err: ErrTokenGeneration}
	}
	user.PasswordHash = ""
	return token, user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	defer func() { observability.AuthAttempt("login", err) }()

	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, &domain.AuthError{Code: domain.AuthInvalidCredential, Err: ErrAuthenticationFailed}
	}

	user, err = s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown email and wrong password look the same to the caller
			return "", nil, &domain.AuthError{Code: domain.AuthInvalidCredential, Err: ErrAuthenticationFailed}
		}
		return "", nil, &domain.AuthError{Code: domain.AuthOther, Err: err}
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, &domain.AuthError{Code: domain.AuthInvalidCredential, Err: ErrAuthenticationFailed}
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, &domain.AuthError{Code: domain.AuthOther, Err: ErrTokenGeneration}
	}
	user.PasswordHash = ""
	return token, user, nil
}

// ParseToken validates a signed token and returns its claims.
func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUser returns the account behind a token subject.
func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	userID, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "fitlist",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
