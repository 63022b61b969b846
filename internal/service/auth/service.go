package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/config"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

// maxLoginAttempts locks the account after this many consecutive failures.
const maxLoginAttempts = 5

type claims struct {
	jwt.RegisteredClaims
	Email      string           `json:"email"`
	GlobalRole model.GlobalRole `json:"global_role"`
}

// Service issues and validates JWTs and manages user credentials.
type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	cfg    config.JWTConfig
	logger zerolog.Logger
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, cfg config.JWTConfig, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.Conflict("email already registered")
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		GlobalRole:   model.GlobalRoleUser,
		Status:       model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a token pair. Failed attempts are
// counted per user; the account locks once the count reaches
// maxLoginAttempts and only unlocks through an administrative status reset.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status == model.UserStatusLocked {
		return nil, errors.Unauthorized("account is locked")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.LoginAttempts++
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
			s.logger.Warn().Str("user_id", user.ID.String()).Msg("account locked after repeated login failures")
		}
		if updateErr := s.users.Update(ctx, user); updateErr != nil {
			s.logger.Error().Err(updateErr).Str("user_id", user.ID.String()).Msg("failed to record login failure")
		}
		return nil, errors.Unauthorized("invalid credentials")
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	tokenClaims, err := s.parse(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return nil, errors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.Get(ctx, tokenClaims.UserID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status == model.UserStatusLocked {
		return nil, errors.Unauthorized("account is locked")
	}

	return s.issueTokens(user)
}

// Validate checks an access token and returns its identity claims.
func (s *Service) Validate(tokenString string) (*model.TokenClaims, error) {
	tokenClaims, err := s.parse(tokenString, s.cfg.Secret)
	if err != nil {
		return nil, errors.Unauthorized("invalid token")
	}
	return tokenClaims, nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.ExpiryHours) * time.Hour)

	access, err := s.sign(user, expiresAt, s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshExpiry := time.Now().Add(time.Duration(s.cfg.RefreshExpiryHours) * time.Hour)
	refresh, err := s.sign(user, refreshExpiry, s.cfg.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) sign(user *model.User, expiresAt time.Time, secret string) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:      user.Email,
		GlobalRole: user.GlobalRole,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func (s *Service) parse(tokenString, secret string) (*model.TokenClaims, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}

	return &model.TokenClaims{
		UserID:     userID,
		Email:      c.Email,
		GlobalRole: c.GlobalRole,
	}, nil
}
