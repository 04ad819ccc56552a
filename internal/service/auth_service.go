package service

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"notedev-server/internal/domain"
	"notedev-server/pkg/hash"
	"notedev-server/pkg/jwt"

	"go.uber.org/zap"
)

// AuthService authenticates the single configured administrator. Template
// mutations are the only operations that require it.
type AuthService struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
	logger            *zap.Logger
}

func NewAuthService(adminEmail, adminPasswordHash, jwtSecret string, jwtExp, refreshExp time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		adminEmail:        strings.ToLower(adminEmail),
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
		logger:            logger,
	}
}

// Enabled reports whether an admin password hash has been configured.
func (s *AuthService) Enabled() bool {
	return hash.IsHash(s.adminPasswordHash)
}

func (s *AuthService) Login(req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if !s.Enabled() {
		s.logger.Warn("Admin login attempted without ADMIN_PASSWORD_HASH configured")
		return nil, domain.ErrUnauthorized
	}

	email := strings.ToLower(req.Email)
	if subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) != 1 {
		s.logger.Warn("Admin login failed", zap.String("email", req.Email))
		return nil, domain.ErrUnauthorized
	}

	if err := hash.Compare(s.adminPasswordHash, req.Password); err != nil {
		s.logger.Warn("Admin login failed", zap.String("email", req.Email))
		return nil, domain.ErrUnauthorized
	}

	accessToken, err := jwt.GenerateToken(s.adminEmail, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(s.adminEmail, s.refreshExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.logger.Info("Admin logged in", zap.String("email", s.adminEmail))

	return &domain.LoginResponse{
		Email:        s.adminEmail,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtExpiration.Seconds()),
	}, nil
}

func (s *AuthService) RefreshToken(req *domain.RefreshTokenRequest) (*domain.TokenResponse, error) {
	claims, err := jwt.ValidateRefreshToken(req.RefreshToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	}

	accessToken, err := jwt.GenerateToken(claims.UserID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtExpiration.Seconds()),
	}, nil
}

// ValidateToken accepts only access tokens issued to the configured admin.
func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateAccessToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.UserID != s.adminEmail {
		return nil, fmt.Errorf("invalid token: unknown subject %q", claims.UserID)
	}
	return claims, nil
}
