package service

import (
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

var (
	ErrValidation    = errors.New("invalid request")
	ErrConfiguration = errors.New("configuration error")
	ErrUpstream      = errors.New("upstream error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

var (
	ErrCouponMinimum       = kindError(ErrValidation, "coupon requires a minimum donation amount")
	ErrNothingToCharge     = kindError(ErrValidation, "final amount after discount is zero")
	ErrDonationNotFound    = kindError(ErrNotFound, "donation not found")
	ErrPaymentMismatch     = kindError(ErrValidation, "orderId does not belong to this donation")
	ErrGatewayTokenMissing = kindError(ErrConfiguration, "MERCADO_PAGO_ACCESS_TOKEN is not configured")
	ErrEmailKeyMissing     = kindError(ErrConfiguration, "RESEND_API_KEY is not configured")
	ErrInvalidCredentials  = kindError(ErrUnauthorized, "invalid email or password")
	ErrAdminRequired       = kindError(ErrForbidden, "admin role required")
	ErrCannotDeleteSelf    = kindError(ErrValidation, "you cannot delete your own user")
)

// domainError carries a user-facing message while matching its kind sentinel
// and, when present, the underlying cause with errors.Is / errors.As.
type domainError struct {
	kind    error
	message string
	cause   error
}

func (e *domainError) Error() string {
	return e.message
}

func (e *domainError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func kindError(kind error, message string) error {
	return &domainError{kind: kind, message: message}
}

func validationError(format string, args ...interface{}) error {
	return &domainError{kind: ErrValidation, message: fmt.Sprintf(format, args...)}
}

func notFoundError(message string, cause error) error {
	return &domainError{kind: ErrNotFound, message: message, cause: cause}
}

func conflictError(message string, cause error) error {
	return &domainError{kind: ErrConflict, message: message, cause: cause}
}

// upstreamError surfaces the gateway or email provider message verbatim.
// Transport failures (timeouts, DNS) are upstream errors too.
func upstreamError(err error) error {
	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		return &domainError{kind: ErrUpstream, message: upstream.Message, cause: err}
	}
	return &domainError{kind: ErrUpstream, message: "payment provider unavailable: " + err.Error(), cause: err}
}

var repositoryNotFound = []error{
	repository.ErrDonationNotFound,
	repository.ErrCouponNotFound,
	repository.ErrStreamerNotFound,
	repository.ErrCampaignNotFound,
	repository.ErrServerNotFound,
	repository.ErrModNotFound,
	repository.ErrVipPackageNotFound,
	repository.ErrSecretNotFound,
	repository.ErrUserNotFound,
}

var repositoryConflict = []error{
	repository.ErrDonationAlreadyExists,
	repository.ErrCouponAlreadyExists,
	repository.ErrUserAlreadyExists,
}

// translateRepoError gives repository sentinels a kind the transport layer
// can map. Anything else passes through untouched.
func translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range repositoryNotFound {
		if errors.Is(err, target) {
			return notFoundError(target.Error(), err)
		}
	}
	for _, target := range repositoryConflict {
		if errors.Is(err, target) {
			return conflictError(target.Error(), err)
		}
	}
	if errors.Is(err, repository.ErrInvalidCouponRow) {
		return &domainError{kind: ErrValidation, message: err.Error(), cause: err}
	}
	return err
}
