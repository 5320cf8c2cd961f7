package http

import (
	"context"
	"errors"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
	apperrors "github.com/wekeepgrowing/semo-credits/pkg/errors"
)

// toAppError maps domain errors to response codes. Provider detail never reaches the client.
func toAppError(err error) *apperrors.AppError {
	var (
		validationErr *domainErrors.ValidationError
		signatureErr  *domainErrors.SignatureVerificationError
	)

	switch {
	case errors.As(err, &validationErr):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, validationErr.Error(), err)
	case errors.As(err, &signatureErr):
		return apperrors.NewAppError(apperrors.ErrSignature, "webhook signature verification failed", err)
	case errors.Is(err, domainErrors.ErrForbidden):
		return apperrors.NewAppError(apperrors.ErrUnauthorized, "purchase belongs to another user or payment", err)
	case errors.Is(err, domainErrors.ErrPurchaseNotFound):
		return apperrors.NewAppError(apperrors.ErrNotFound, "purchase not found", err)
	case errors.Is(err, domainErrors.ErrPackageNotFound):
		return apperrors.NewAppError(apperrors.ErrNotFound, "credit package not found", err)
	case errors.Is(err, domainErrors.ErrProviderNotConfigured):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "payment provider not available", err)
	case errors.Is(err, domainErrors.ErrExternalIDConflict):
		return apperrors.NewAppError(apperrors.ErrConflict, "payment already linked to another purchase", err)
	case errors.Is(err, provider.ErrInvalidReference):
		return apperrors.NewAppError(apperrors.ErrUnprocessable, "payment reference is not valid", err)
	case errors.Is(err, provider.ErrProviderUnavailable):
		return apperrors.NewAppError(apperrors.ErrUnavailable, "payment provider unavailable, try again later", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError(apperrors.ErrTimeout, "request timed out", err)
	}
	return apperrors.NewAppError(apperrors.ErrInternal, "internal error", err)
}
