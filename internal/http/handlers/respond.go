package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/identity"
	"github.com/geocoder89/sitehub/internal/media"
	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const requestIDKey = "request_id"

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(requestIDKey)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"success": false,
		"message": message,
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

// RespondOK writes payload with the success flag set.
func RespondOK(ctx *gin.Context, status int, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	ctx.JSON(status, payload)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

// RespondServiceError maps service and store errors onto status codes.
// Unknown errors are logged and reported as a generic 500.
func RespondServiceError(ctx *gin.Context, err error) {
	var verr *validation.Error
	var raw validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": verr.FieldErrors()})
	case errors.As(err, &raw):
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": validation.Fields(raw)})

	case errors.Is(err, identity.ErrPasswordMismatch):
		RespondError(ctx, http.StatusBadRequest, "password_mismatch", "Passwords do not match.", nil)
	case errors.Is(err, identity.ErrCurrentPasswordInvalid):
		RespondError(ctx, http.StatusBadRequest, "invalid_current_password", "Current password is incorrect.", nil)
	case errors.Is(err, identity.ErrInvalidOrExpiredToken):
		RespondError(ctx, http.StatusBadRequest, "invalid_or_expired_token", "Reset link is invalid or has expired.", nil)
	case errors.Is(err, identity.ErrNothingToUpdate), errors.Is(err, content.ErrNothingToUpdate):
		RespondBadRequest(ctx, "Nothing to update.", nil)
	case errors.Is(err, content.ErrImageRequired):
		RespondError(ctx, http.StatusBadRequest, "image_required", "An image is required for this content type.", nil)
	case errors.Is(err, media.ErrInvalidFile):
		RespondError(ctx, http.StatusBadRequest, "invalid_file", "Only .jpg, .jpeg and .png images are allowed.", nil)
	case errors.Is(err, media.ErrTooLarge):
		RespondError(ctx, http.StatusRequestEntityTooLarge, "too_large", "Image is too large.", nil)

	case errors.Is(err, identity.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")

	case errors.Is(err, identity.ErrSelfRoleChange):
		RespondForbidden(ctx, "You cannot change your own role.", nil)
	case errors.Is(err, content.ErrNotOwner):
		RespondForbidden(ctx, "You do not have permission to modify this resource.", nil)

	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found.")
	case errors.Is(err, content.ErrNotFound):
		RespondNotFound(ctx, "Resource not found.")

	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email is already in use.")
	case errors.Is(err, content.ErrAlreadyExists):
		RespondConflict(ctx, "conflict", "Resource already exists for this account.")

	case errors.Is(err, identity.ErrDeliveryFailed):
		RespondError(ctx, http.StatusBadGateway, "dependency_failure", "Could not send email. Please try again later.", nil)
	case errors.Is(err, media.ErrUploadFailed), errors.Is(err, media.ErrUnavailable):
		RespondError(ctx, http.StatusBadGateway, "dependency_failure", "Image upload failed. Please try again later.", nil)

	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondInternal(ctx, "Something went wrong.")
	}
}
