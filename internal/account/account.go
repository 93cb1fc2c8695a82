// Package account implements the password-reset and forgot-password flows.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/logging"
)

// User-facing messages.
const (
	MsgInvalidLink   = "Invalid reset link. Please request a new password reset."
	MsgMissingFields = "Please fill in all fields"
	MsgMismatch      = "Passwords do not match"
	MsgWeakPassword  = "Password does not meet requirements"
	MsgResetFailed   = "Failed to reset password. The link may have expired."
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgForgotFailed  = "Failed to send reset email"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// DefaultVerifyLimit bounds the reset-token check.
	DefaultVerifyLimit = 10 * time.Second
)

// ErrValidation marks input rejected before any request.
var ErrValidation = errors.New("validation failed")

// Error carries the message shown to the user.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// TokenStatus is the outcome of a reset-token check.
type TokenStatus int

const (
	// TokenUnknown means the check timed out or never reached the server.
	TokenUnknown TokenStatus = iota
	TokenValid
	TokenInvalid
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ResetForm is the reset-password submission.
type ResetForm struct {
	Token    string `validate:"required"`
	Password string `validate:"required,strongpw"`
	Confirm  string `validate:"required,eqfield=Password"`
}

type forgotForm struct {
	Email string `validate:"required,email"`
}

// API is the subset of the REST client the flows use.
type API interface {
	VerifyResetToken(ctx context.Context, token string) (*apiclient.Response, error)
	ResetPassword(ctx context.Context, token, password string) (*apiclient.Response, error)
	ForgotPassword(ctx context.Context, email string) (*apiclient.Response, error)
}

// Service runs the account flows.
type Service struct {
	api           API
	verifyTimeout time.Duration
	validate      *validator.Validate
	log           *slog.Logger
}

// NewService creates the service. A zero verifyTimeout uses
// DefaultVerifyLimit.
func NewService(api API, verifyTimeout time.Duration, logger *slog.Logger) *Service {
	if verifyTimeout <= 0 {
		verifyTimeout = DefaultVerifyLimit
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("strongpw", validateStrongPassword)
	return &Service{api: api, verifyTimeout: verifyTimeout, validate: v, log: logging.OrDiscard(logger)}
}

// StrongPassword reports whether pw has at least MinPasswordLength
// characters including an upper case letter, a lower case letter and a digit.
func StrongPassword(pw string) bool {
	if len([]rune(pw)) < MinPasswordLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}

// VerifyToken checks token against the backend, giving up after the verify
// timeout. A server rejection is TokenInvalid; anything else that fails is
// TokenUnknown.
func (s *Service) VerifyToken(ctx context.Context, token string) TokenStatus {
	if token == "" {
		return TokenInvalid
	}
	ctx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	_, err := s.api.VerifyResetToken(ctx, token)
	var apiErr *apiclient.APIError
	switch {
	case err == nil:
		return TokenValid
	case errors.As(err, &apiErr):
		s.log.Debug("reset token rejected", "status", apiErr.Status, "message", apiErr.Message)
		return TokenInvalid
	default:
		s.log.Debug("reset token check failed", "err", err)
		return TokenUnknown
	}
}

// VerifyAsync runs VerifyToken in the background. The channel receives one
// status and is then closed.
func (s *Service) VerifyAsync(ctx context.Context, token string) <-chan TokenStatus {
	ch := make(chan TokenStatus, 1)
	go func() {
		defer close(ch)
		ch <- s.VerifyToken(ctx, token)
	}()
	return ch
}

// Check validates form without sending it.
func (s *Service) Check(form ResetForm) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Message: MsgMissingFields, Err: err}
	}

	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()+"."+fe.Tag()] = true
	}
	switch {
	case failed["Token.required"]:
		return &Error{Message: MsgInvalidLink, Err: ErrValidation}
	case failed["Password.required"] || failed["Confirm.required"]:
		return &Error{Message: MsgMissingFields, Err: ErrValidation}
	case failed["Confirm.eqfield"]:
		return &Error{Message: MsgMismatch, Err: ErrValidation}
	default:
		return &Error{Message: MsgWeakPassword, Err: ErrValidation}
	}
}

// Reset validates form and submits the new password.
func (s *Service) Reset(ctx context.Context, form ResetForm) error {
	if err := s.Check(form); err != nil {
		return err
	}
	if _, err := s.api.ResetPassword(ctx, form.Token, form.Password); err != nil {
		return failure(err, MsgResetFailed)
	}
	return nil
}

// ForgotPassword requests a reset email for address.
func (s *Service) ForgotPassword(ctx context.Context, address string) (string, error) {
	if err := s.validate.Struct(forgotForm{Email: address}); err != nil {
		return "", &Error{Message: MsgInvalidEmail, Err: ErrValidation}
	}
	resp, err := s.api.ForgotPassword(ctx, address)
	if err != nil {
		return "", failure(err, MsgForgotFailed)
	}
	return resp.Message, nil
}

func failure(err error, fallback string) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &Error{Message: apiErr.Message, Err: err}
	}
	return &Error{Message: fallback, Err: err}
}
