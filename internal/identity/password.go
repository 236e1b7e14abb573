package identity

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/notifications"
	"github.com/geocoder89/sitehub/internal/validation"
)

const rollbackTimeout = 3 * time.Second

func (s *Service) ChangePassword(ctx context.Context, userID string, in user.ChangePasswordRequest) error {
	if err := validation.Struct(in); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(in.CurrentPassword, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.record("change_password", "invalid_current")
		return ErrCurrentPasswordInvalid
	}

	if in.NewPassword != in.ConfirmNewPassword {
		return ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	s.record("change_password", "ok")
	return nil
}

// ForgotPassword answers identically whether or not the email is registered.
// On a delivery failure the pending token is removed before the error is
// returned.
func (s *Service) ForgotPassword(ctx context.Context, in user.ForgotPasswordRequest) error {
	in.Email = user.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, user.ErrNotFound) {
		s.record("forgot_password", "unknown_email")
		return nil
	}
	if err != nil {
		return err
	}

	plain, hash, expiresAt, err := s.resets.Issue(s.now())
	if err != nil {
		return err
	}

	if err := s.users.SetResetToken(ctx, u.ID, hash, expiresAt); err != nil {
		return err
	}

	sendErr := s.mailer.Send(ctx, s.resetMessage(u, plain))
	if sendErr == nil {
		s.record("forgot_password", "sent")
		return nil
	}

	s.record("forgot_password", "delivery_failed")
	s.log.ErrorContext(ctx, "reset mail delivery failed", "user_id", u.ID, "err", sendErr)

	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := s.users.ClearResetToken(rbCtx, u.ID, hash); err != nil {
		s.log.ErrorContext(ctx, "reset token rollback failed", "user_id", u.ID, "err", err)
		return errors.Join(fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr), err)
	}

	return fmt.Errorf("%w: %v", ErrDeliveryFailed, sendErr)
}

// ResetPassword redeems a reset token and signs the user straight in.
func (s *Service) ResetPassword(ctx context.Context, plainToken string, in user.ResetPasswordRequest) (Session, error) {
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}
	if in.Password != in.ConfirmPassword {
		return Session{}, ErrPasswordMismatch
	}
	if plainToken == "" {
		return Session{}, ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.RedeemResetToken(ctx, s.resets.Hash(plainToken), s.now().UTC(), hash)
	if errors.Is(err, user.ErrNotFound) {
		s.record("reset_password", "invalid_token")
		return Session{}, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return Session{}, err
	}

	s.record("reset_password", "ok")
	return s.startSession(u)
}

func (s *Service) resetMessage(u user.User, plainToken string) notifications.Message {
	link := s.cfg.DashboardURL + "/password/reset/" + plainToken

	body := fmt.Sprintf(
		`<p>Hello %s,</p>`+
			`<p>We received a request to reset your %s password. The link below is valid for a short time and can be used once.</p>`+
			`<p><a href="%s">Reset your password</a></p>`+
			`<p>If you did not ask for this, you can ignore this email.</p>`,
		html.EscapeString(u.FullName),
		html.EscapeString(s.cfg.SiteName),
		html.EscapeString(link),
	)

	return notifications.Message{
		To:      u.Email,
		Subject: s.cfg.SiteName + " password recovery",
		HTML:    body,
	}
}
