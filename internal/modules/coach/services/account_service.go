package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mojisejr/oeng-api/internal/core/auth"
	"github.com/mojisejr/oeng-api/internal/modules/coach/models"
	"github.com/mojisejr/oeng-api/internal/modules/coach/repositories"
	"github.com/mojisejr/oeng-api/internal/shared/utils"
)

// Account business outcomes surfaced to handlers.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RegisterRequest represents registration request payload
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	User         *UserInfo `json:"user"`
}

// UserInfo represents user information in auth responses
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	CreditBalance int    `json:"credit_balance"`
}

// AccountService handles registration, login and token refresh.
type AccountService struct {
	userRepo      repositories.UserRepo
	creditService *CreditService
	jwtService    *auth.JWTService
	freeCredits   int
}

// NewAccountService creates a new account service
func NewAccountService(userRepo repositories.UserRepo, creditService *CreditService, jwtService *auth.JWTService, freeCredits int) *AccountService {
	return &AccountService{
		userRepo:      userRepo,
		creditService: creditService,
		jwtService:    jwtService,
		freeCredits:   freeCredits,
	}
}

// Register creates a new account and seeds the welcome bonus. The bonus is
// granted only in this created-now branch; a duplicate email never reaches
// the grant.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email")
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}

	exists, err := s.userRepo.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: passwordHash,
	}

	if err := s.userRepo.Create(user); err != nil {
		// The unique index closes the race between EmailExists and Create.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.freeCredits > 0 {
		grant := s.creditService.GrantFreeCredits(ctx, user.ID.String(), s.freeCredits)
		if !grant.Success {
			utils.LogError("Welcome bonus grant failed", errors.New(grant.Message), map[string]interface{}{
				"user_id": user.ID.String(),
				"code":    grant.Code,
			})
		} else {
			user.CreditBalance = grant.NewBalance
		}
	}

	utils.LogInfo("User registered", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})

	return s.generateAuthResponse(user)
}

// Login authenticates user with email and password
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	utils.LogInfo("User logged in", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})

	return s.generateAuthResponse(user)
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return s.generateAuthResponse(user)
}

// GetProfile returns the account behind a validated token.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

func (s *AccountService) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	accessToken, expiresIn, err := s.jwtService.GenerateAccessToken(&auth.TokenClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, _, err := s.jwtService.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User: &UserInfo{
			ID:            user.ID.String(),
			Email:         user.Email,
			Name:          user.Name,
			CreditBalance: user.CreditBalance,
		},
	}, nil
}
