package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// ParseRole returns RoleUser for empty input.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleUser, true
	}
	r := Role(s)
	return r, r.Valid()
}

type User struct {
	ID           string    `json:"id" bson:"_id"`
	FullName     string    `json:"fullName" bson:"full_name"`
	Email        string    `json:"email" bson:"email"`
	Phone        string    `json:"phone" bson:"phone"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never expose hash in JSON
	Role         Role      `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`

	// Reset state: both set or both empty.
	ResetTokenHash   string     `json:"-" bson:"reset_token_hash,omitempty"`
	ResetTokenExpiry *time.Time `json:"-" bson:"reset_token_expiry,omitempty"`
}

func (u User) HasPendingReset() bool {
	return u.ResetTokenHash != "" && u.ResetTokenExpiry != nil
}

// NormalizeEmail is the single case-folding rule for every email lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,min=4,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,min=7,max=20"`
	Password string `json:"password" binding:"required,min=8,max=72,maxbytes=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate enumerates every field a user may change about themselves.
type ProfileUpdate struct {
	FullName *string `json:"fullName" binding:"omitempty,min=4,max=100"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone" binding:"omitempty,min=7,max=20"`
}

func (p ProfileUpdate) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,min=8,max=72,maxbytes=72"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8,max=72,maxbytes=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type SetRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=user admin superAdmin"`
}

type ListFilter struct {
	Role   *Role
	Limit  int
	Cursor *Cursor
}

// Cursor positions a newest-first listing.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// After reports whether u sorts strictly after the cursor in newest-first order.
func (c Cursor) After(u User) bool {
	if u.CreatedAt.Equal(c.CreatedAt) {
		return u.ID < c.ID
	}
	return u.CreatedAt.Before(c.CreatedAt)
}
