package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/geocoder89/sitehub/internal/identity"
	"github.com/geocoder89/sitehub/internal/utils"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeIdentity struct {
	registerFn       func(ctx context.Context, in user.RegisterRequest) (identity.Session, error)
	loginFn          func(ctx context.Context, in user.LoginRequest) (identity.Session, error)
	meFn             func(ctx context.Context, userID string) (user.User, error)
	updateProfileFn  func(ctx context.Context, userID string, upd user.ProfileUpdate) (user.User, error)
	changePasswordFn func(ctx context.Context, userID string, in user.ChangePasswordRequest) error
	forgotFn         func(ctx context.Context, in user.ForgotPasswordRequest) error
	resetFn          func(ctx context.Context, token string, in user.ResetPasswordRequest) (identity.Session, error)
	listFn           func(ctx context.Context, filter user.ListFilter) (identity.ListUsersResult, error)
	setRoleFn        func(ctx context.Context, actor actorctx.Identity, targetID string, role user.Role) (user.User, error)
}

func (f *fakeIdentity) Register(ctx context.Context, in user.RegisterRequest) (identity.Session, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return identity.Session{}, nil
}

func (f *fakeIdentity) Login(ctx context.Context, in user.LoginRequest) (identity.Session, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, in)
	}
	return identity.Session{}, nil
}

func (f *fakeIdentity) Me(ctx context.Context, userID string) (user.User, error) {
	if f.meFn != nil {
		return f.meFn(ctx, userID)
	}
	return user.User{}, nil
}

func (f *fakeIdentity) UpdateProfile(ctx context.Context, userID string, upd user.ProfileUpdate) (user.User, error) {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, userID, upd)
	}
	return user.User{}, nil
}

func (f *fakeIdentity) ChangePassword(ctx context.Context, userID string, in user.ChangePasswordRequest) error {
	if f.changePasswordFn != nil {
		return f.changePasswordFn(ctx, userID, in)
	}
	return nil
}

func (f *fakeIdentity) ForgotPassword(ctx context.Context, in user.ForgotPasswordRequest) error {
	if f.forgotFn != nil {
		return f.forgotFn(ctx, in)
	}
	return nil
}

func (f *fakeIdentity) ResetPassword(ctx context.Context, token string, in user.ResetPasswordRequest) (identity.Session, error) {
	if f.resetFn != nil {
		return f.resetFn(ctx, token, in)
	}
	return identity.Session{}, nil
}

func (f *fakeIdentity) ListUsers(ctx context.Context, filter user.ListFilter) (identity.ListUsersResult, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return identity.ListUsersResult{}, nil
}

func (f *fakeIdentity) SetRole(ctx context.Context, actor actorctx.Identity, targetID string, role user.Role) (user.User, error) {
	if f.setRoleFn != nil {
		return f.setRoleFn(ctx, actor, targetID, role)
	}
	return user.User{}, nil
}

// withActor stands in for the session middleware.
func withActor(id actorctx.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

var alice = actorctx.Identity{UserID: "u-1", Email: "alice@x.com", FullName: "Alice Doe", Role: user.RoleAdmin}

func newUsersRouter(svc handlers.IdentityService) *gin.Engine {
	h := handlers.NewUsersHandler(svc, handlers.CookieConfig{Name: "token", Secure: true})

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	r.POST("/password/forgot", h.ForgotPassword)
	r.PUT("/password/reset/:token", h.ResetPassword)

	authed := r.Group("/", withActor(alice))
	authed.GET("/me", h.Me)
	authed.PUT("/update", h.UpdateProfile)
	authed.PUT("/password/update", h.ChangePassword)
	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/users", h.ListUsers)
	authed.PUT("/users/:id/role", h.SetRole)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestRegister_SetsCookieAndHidesToken(t *testing.T) {
	svc := &fakeIdentity{
		registerFn: func(ctx context.Context, in user.RegisterRequest) (identity.Session, error) {
			if in.Email != " Alice@X.com " {
				t.Fatalf("handler should pass email through untouched, got %q", in.Email)
			}
			return identity.Session{
				User:      user.User{ID: "u-1", Email: "alice@x.com", Role: user.RoleUser, PasswordHash: "$2a$secret"},
				Token:     "signed.jwt.value",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}

	w := doJSON(newUsersRouter(svc), http.MethodPost, "/register",
		`{"fullName":"Alice Doe","email":" Alice@X.com ","phone":"1234567890","password":"longsecret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	c := sessionCookie(t, w)
	if c == nil {
		t.Fatalf("expected session cookie")
	}
	if c.Value != "signed.jwt.value" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteNoneMode {
		t.Fatalf("unexpected cookie %+v", c)
	}

	body := w.Body.String()
	if strings.Contains(body, "signed.jwt.value") {
		t.Fatalf("token must not be in the body: %s", body)
	}
	if strings.Contains(body, "secret") || strings.Contains(body, "password") {
		t.Fatalf("password material leaked: %s", body)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &fakeIdentity{
		loginFn: func(ctx context.Context, in user.LoginRequest) (identity.Session, error) {
			return identity.Session{}, identity.ErrInvalidCredentials
		},
	}

	w := doJSON(newUsersRouter(svc), http.MethodPost, "/login", `{"email":"a@x.com","password":"nope"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != "invalid_credentials" || resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
	if sessionCookie(t, w) != nil {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	w := doJSON(newUsersRouter(&fakeIdentity{}), http.MethodGet, "/logout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	c := sessionCookie(t, w)
	if c == nil || c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", c)
	}
}

func TestMe_UsesIdentityFromContext(t *testing.T) {
	svc := &fakeIdentity{
		meFn: func(ctx context.Context, userID string) (user.User, error) {
			if userID != alice.UserID {
				t.Fatalf("userID = %q", userID)
			}
			return user.User{ID: userID, Email: alice.Email, Role: user.RoleAdmin}, nil
		},
	}

	w := doJSON(newUsersRouter(svc), http.MethodGet, "/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Success bool      `json:"success"`
		User    user.User `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.User.Email != "alice@x.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"mismatch", identity.ErrPasswordMismatch, http.StatusBadRequest, "password_mismatch"},
		{"current invalid", identity.ErrCurrentPasswordInvalid, http.StatusBadRequest, "invalid_current_password"},
		{"nothing to update", identity.ErrNothingToUpdate, http.StatusBadRequest, "invalid_request"},
		{"email taken", user.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{"not found", user.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeIdentity{
				changePasswordFn: func(ctx context.Context, userID string, in user.ChangePasswordRequest) error {
					return tt.err
				},
			}

			w := doJSON(newUsersRouter(svc), http.MethodPut, "/password/update",
				`{"currentPassword":"a","newPassword":"longsecret2","confirmNewPassword":"longsecret2"}`)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if resp := decodeError(t, w); resp.Error.Code != tt.wantErr {
				t.Fatalf("code = %q, want %q", resp.Error.Code, tt.wantErr)
			}
		})
	}
}

func TestForgotPassword_UniformResponse(t *testing.T) {
	svc := &fakeIdentity{}
	r := newUsersRouter(svc)

	known := doJSON(r, http.MethodPost, "/password/forgot", `{"email":"alice@x.com"}`)
	unknown := doJSON(r, http.MethodPost, "/password/forgot", `{"email":"nobody@x.com"}`)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Fatalf("responses differ: %s vs %s", known.Body.String(), unknown.Body.String())
	}

	svc.forgotFn = func(ctx context.Context, in user.ForgotPasswordRequest) error {
		return identity.ErrDeliveryFailed
	}
	if w := doJSON(r, http.MethodPost, "/password/forgot", `{"email":"alice@x.com"}`); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on delivery failure, got %d", w.Code)
	}
}

func TestResetPassword_PassesTokenAndSetsCookie(t *testing.T) {
	svc := &fakeIdentity{
		resetFn: func(ctx context.Context, token string, in user.ResetPasswordRequest) (identity.Session, error) {
			if token == "good" {
				return identity.Session{User: user.User{ID: "u-1"}, Token: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
			return identity.Session{}, identity.ErrInvalidOrExpiredToken
		},
	}
	r := newUsersRouter(svc)
	body := `{"password":"new12345","confirmPassword":"new12345"}`

	bad := doJSON(r, http.MethodPut, "/password/reset/wrong", body)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", bad.Code)
	}
	if resp := decodeError(t, bad); resp.Error.Code != "invalid_or_expired_token" {
		t.Fatalf("code = %q", resp.Error.Code)
	}

	good := doJSON(r, http.MethodPut, "/password/reset/good", body)
	if good.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", good.Code)
	}
	if c := sessionCookie(t, good); c == nil || c.Value != "fresh" {
		t.Fatalf("expected new session cookie, got %+v", c)
	}
}

func TestListUsers_QueryParsingAndCursor(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	svc := &fakeIdentity{
		listFn: func(ctx context.Context, filter user.ListFilter) (identity.ListUsersResult, error) {
			if filter.Limit != 2 {
				t.Fatalf("limit = %d", filter.Limit)
			}
			if filter.Role == nil || *filter.Role != user.RoleAdmin {
				t.Fatalf("role = %v", filter.Role)
			}
			return identity.ListUsersResult{
				Users:      []user.User{{ID: "b"}, {ID: "a"}},
				NextCursor: &user.Cursor{CreatedAt: created, ID: "a"},
			}, nil
		},
	}
	r := newUsersRouter(svc)

	w := doJSON(r, http.MethodGet, "/users?limit=2&role=admin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Users      []user.User `json:"users"`
		NextCursor *string     `json:"nextCursor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Users) != 2 || resp.NextCursor == nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	c, err := utils.DecodeUserCursor(*resp.NextCursor)
	if err != nil || c.ID != "a" || !c.CreatedAt.Equal(created) {
		t.Fatalf("cursor = %+v, %v", c, err)
	}

	for _, q := range []string{"limit=0", "limit=abc", "role=owner", "cursor=notbase64!"} {
		if w := doJSON(r, http.MethodGet, "/users?"+q, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestSetRole(t *testing.T) {
	svc := &fakeIdentity{
		setRoleFn: func(ctx context.Context, actor actorctx.Identity, targetID string, role user.Role) (user.User, error) {
			if actor.UserID == targetID {
				return user.User{}, identity.ErrSelfRoleChange
			}
			return user.User{ID: targetID, Role: role}, nil
		},
	}
	r := newUsersRouter(svc)

	if w := doJSON(r, http.MethodPut, "/users/u-2/role", `{"role":"admin"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/users/u-1/role", `{"role":"user"}`); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for self change, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPut, "/users/u-2/role", `{"role":"owner"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", w.Code)
	}
}

func TestSessionCookie_SameSiteFollowsSecure(t *testing.T) {
	svc := &fakeIdentity{
		loginFn: func(ctx context.Context, in user.LoginRequest) (identity.Session, error) {
			return identity.Session{User: user.User{ID: "u-1"}, Token: "signed.jwt.value", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}

	tests := []struct {
		name   string
		secure bool
		want   http.SameSite
	}{
		{name: "https", secure: true, want: http.SameSiteNoneMode},
		{name: "plain http dev", secure: false, want: http.SameSiteLaxMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewUsersHandler(svc, handlers.CookieConfig{Name: "token", Secure: tt.secure})
			r := gin.New()
			r.POST("/login", h.Login)
			r.GET("/logout", h.Logout)

			for _, w := range []*httptest.ResponseRecorder{
				doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"longsecret1"}`),
				doJSON(r, http.MethodGet, "/logout", ""),
			} {
				c := sessionCookie(t, w)
				if c == nil {
					t.Fatalf("expected session cookie, body=%s", w.Body.String())
				}
				if c.SameSite != tt.want || c.Secure != tt.secure {
					t.Fatalf("cookie SameSite=%v Secure=%v, want %v/%v", c.SameSite, c.Secure, tt.want, tt.secure)
				}
			}
		})
	}
}
