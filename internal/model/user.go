package model

import (
	"time"

	"github.com/google/uuid"
)

type GlobalRole string

const (
	GlobalRoleSuperAdmin GlobalRole = "SUPER_ADMIN"
	GlobalRoleUser       GlobalRole = "USER"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusLocked UserStatus = "locked"
)

type User struct {
	Base
	Email         string     `db:"email" json:"email"`
	Name          string     `db:"name" json:"name"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	GlobalRole    GlobalRole `db:"global_role" json:"global_role"`
	Status        UserStatus `db:"status" json:"status"`
	LoginAttempts int        `db:"login_attempts" json:"-"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,max=200"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenClaims struct {
	UserID     uuid.UUID  `json:"user_id"`
	Email      string     `json:"email"`
	GlobalRole GlobalRole `json:"global_role"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
