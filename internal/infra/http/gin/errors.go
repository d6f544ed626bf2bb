package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"airbrb/internal/app/dto"
	bookingapp "airbrb/internal/app/handlers/booking"
	"airbrb/internal/app/middleware"
	authsvc "airbrb/internal/app/services/auth"
	"airbrb/internal/app/uow"
	"airbrb/internal/app/validation"
	domainbooking "airbrb/internal/domain/booking"
	"airbrb/internal/domain/eligibility"
	domainlistings "airbrb/internal/domain/listings"
	"airbrb/internal/domain/pricing"
	domainreviews "airbrb/internal/domain/reviews"
	"airbrb/internal/domain/shared/daterange"
	"airbrb/internal/domain/shared/money"
	domainuser "airbrb/internal/domain/user"
	"airbrb/internal/infra/security"
)

// statusOf maps application errors to HTTP status codes.
func statusOf(err error) int {
	var rejection *eligibility.Rejection
	switch {
	case errors.As(err, &rejection):
		return http.StatusBadRequest
	case errors.Is(err, middleware.ErrUnauthenticated),
		errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domainlistings.ErrNotOwner),
		errors.Is(err, bookingapp.ErrBookingNotOwned),
		errors.Is(err, bookingapp.ErrOwnListing),
		errors.Is(err, domainreviews.ErrNotGuest):
		return http.StatusForbidden
	case errors.Is(err, domainlistings.ErrListingNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainreviews.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, domainlistings.ErrNotPublished),
		errors.Is(err, domainreviews.ErrBookingNotAccepted),
		errors.Is(err, uow.ErrConcurrentBooking),
		errors.Is(err, uow.ErrVersionConflict),
		errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		return http.StatusConflict
	case isInputError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isInputError(err error) bool {
	for _, target := range []error{
		validation.ErrInvalid,
		daterange.ErrInvalidDate,
		daterange.ErrInvalidRange,
		dto.ErrWindowMismatch,
		money.ErrInvalidAmount,
		money.ErrInvalidCurrency,
		pricing.ErrTierMinNights,
		pricing.ErrTierMaxNights,
		pricing.ErrTierPercent,
		pricing.ErrNegativePrice,
		domainlistings.ErrTitleRequired,
		domainlistings.ErrAddressRequired,
		domainlistings.ErrNightlyRate,
		domainlistings.ErrBathrooms,
		domainlistings.ErrBeds,
		domainlistings.ErrAvailabilityRequired,
		domainlistings.ErrAvailabilityRange,
		domainreviews.ErrInvalidRating,
		domainreviews.ErrCommentRequired,
		domainreviews.ErrCommentTooLong,
		domainreviews.ErrWrongListing,
		domainuser.ErrEmailRequired,
		domainuser.ErrEmailInvalid,
		domainuser.ErrNameRequired,
		authsvc.ErrPasswordTooShort,
		security.ErrPasswordTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes the JSON error body. Booking rejections also carry the
// machine readable reason.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusOf(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	var rejection *eligibility.Rejection
	if errors.As(err, &rejection) {
		c.JSON(status, dto.Rejection{Error: rejection.Error(), Reason: string(rejection.Reason)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
