package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/identity"
	"github.com/geocoder89/sitehub/internal/utils"
	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/gin-gonic/gin"
)

const forgotPasswordMessage = "If an account exists for that email, a reset link has been sent."

// IdentityService is what the user routes need from identity.Service.
type IdentityService interface {
	Register(ctx context.Context, in user.RegisterRequest) (identity.Session, error)
	Login(ctx context.Context, in user.LoginRequest) (identity.Session, error)
	Me(ctx context.Context, userID string) (user.User, error)
	UpdateProfile(ctx context.Context, userID string, upd user.ProfileUpdate) (user.User, error)
	ChangePassword(ctx context.Context, userID string, in user.ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, in user.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, plainToken string, in user.ResetPasswordRequest) (identity.Session, error)
	ListUsers(ctx context.Context, filter user.ListFilter) (identity.ListUsersResult, error)
	SetRole(ctx context.Context, actor actorctx.Identity, targetID string, role user.Role) (user.User, error)
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type UsersHandler struct {
	svc     IdentityService
	cookie  CookieConfig
	timeout time.Duration
}

func NewUsersHandler(svc IdentityService, cookie CookieConfig) *UsersHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &UsersHandler{svc: svc, cookie: cookie, timeout: 5 * time.Second}
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.svc.Register(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, sess.Token, sess.ExpiresAt)
	RespondOK(ctx, http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    sess.User,
	})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.svc.Login(cctx, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, sess.Token, sess.ExpiresAt)
	RespondOK(ctx, http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    sess.User,
	})
}

// Logout always clears the cookie, even when the session already expired.
func (h *UsersHandler) Logout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)
	RespondOK(ctx, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	id, _ := actorctx.IdentityFrom(ctx.Request.Context())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.Me(cctx, id.UserID)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	var req user.ProfileUpdate
	if !DecodeJSON(ctx, &req) {
		return
	}
	id, _ := actorctx.IdentityFrom(ctx.Request.Context())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.UpdateProfile(cctx, id.UserID, req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Profile updated", "user": u})
}

func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	var req user.ChangePasswordRequest
	if !DecodeJSON(ctx, &req) {
		return
	}
	id, _ := actorctx.IdentityFrom(ctx.Request.Context())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.ChangePassword(cctx, id.UserID, req); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Password updated"})
}

// ForgotPassword answers the same way whether or not the email is registered.
func (h *UsersHandler) ForgotPassword(ctx *gin.Context) {
	var req user.ForgotPasswordRequest
	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*h.timeout)
	defer cancel()

	if err := h.svc.ForgotPassword(cctx, req); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

func (h *UsersHandler) ResetPassword(ctx *gin.Context) {
	var req user.ResetPasswordRequest
	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	sess, err := h.svc.ResetPassword(cctx, ctx.Param("token"), req)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	h.setSessionCookie(ctx, sess.Token, sess.ExpiresAt)
	RespondOK(ctx, http.StatusOK, gin.H{
		"message": "Password reset successful",
		"user":    sess.User,
	})
}

func (h *UsersHandler) Dashboard(ctx *gin.Context) {
	id, _ := actorctx.IdentityFrom(ctx.Request.Context())

	RespondOK(ctx, http.StatusOK, gin.H{
		"message": "Welcome, " + id.FullName,
		"user": gin.H{
			"id":       id.UserID,
			"fullName": id.FullName,
			"email":    id.Email,
			"role":     id.Role,
		},
	})
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	filter := user.ListFilter{}

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []FieldError{{Field: "limit", Rule: "range", Message: "must be between 1 and 100"}}})
			return
		}
		filter.Limit = n
	}

	if v := ctx.Query("role"); v != "" {
		role, ok := user.ParseRole(v)
		if !ok {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []FieldError{{Field: "role", Rule: "oneof", Message: validation.Message("oneof", "user admin superAdmin")}}})
			return
		}
		filter.Role = &role
	}

	if v := ctx.Query("cursor"); v != "" {
		c, err := utils.DecodeUserCursor(v)
		if err != nil {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []FieldError{{Field: "cursor", Rule: "cursor", Message: "is not a valid cursor"}}})
			return
		}
		filter.Cursor = &user.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.ListUsers(cctx, filter)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	var next *string
	if res.NextCursor != nil {
		s, err := utils.EncodeUserCursor(res.NextCursor.CreatedAt, res.NextCursor.ID)
		if err != nil {
			RespondInternal(ctx, "Could not build cursor")
			return
		}
		next = &s
	}

	RespondOK(ctx, http.StatusOK, gin.H{
		"users":      res.Users,
		"nextCursor": next,
	})
}

func (h *UsersHandler) SetRole(ctx *gin.Context) {
	var req user.SetRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}
	actor, _ := actorctx.IdentityFrom(ctx.Request.Context())

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.SetRole(cctx, actor, ctx.Param("id"), req.Role)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Role updated", "user": u})
}

func (h *UsersHandler) setSessionCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	ctx.SetSameSite(h.sameSite())
	ctx.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *UsersHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(h.sameSite())
	ctx.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

// sameSite is None for the cross-site dashboard. Browsers drop None cookies
// that are not Secure, so plain-http dev falls back to Lax.
func (h *UsersHandler) sameSite() http.SameSite {
	if h.cookie.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
