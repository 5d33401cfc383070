package biz

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons returned to API clients.
const (
	ReasonValidation           = "VALIDATION_FAILED"
	ReasonOrphanNotFound       = "ORPHAN_NOT_FOUND"
	ReasonOrphanNotAvailable   = "ORPHAN_NOT_AVAILABLE"
	ReasonSponsorshipNotFound  = "SPONSORSHIP_NOT_FOUND"
	ReasonSponsorshipEnded     = "SPONSORSHIP_ENDED"
	ReasonSponsorshipForbidden = "SPONSORSHIP_FORBIDDEN"
)

var (
	ErrOrphanNotFound       = errors.NotFound(ReasonOrphanNotFound, "orphan not found")
	ErrOrphanNotAvailable   = errors.Conflict(ReasonOrphanNotAvailable, "orphan not available for sponsorship")
	ErrSponsorshipNotFound  = errors.NotFound(ReasonSponsorshipNotFound, "sponsorship not found")
	ErrSponsorshipNotOwned  = errors.NotFound(ReasonSponsorshipNotFound, "sponsorship not found or not authorized")
	ErrSponsorshipEnded     = errors.Conflict(ReasonSponsorshipEnded, "sponsorship has already ended")
	ErrSponsorshipForbidden = errors.Forbidden(ReasonSponsorshipForbidden, "forbidden: not your sponsorship")
	ErrSponsorshipsNotFound = errors.NotFound(ReasonSponsorshipNotFound, "sponsorships not found")
)

// ValidationError reports missing or malformed input.
func ValidationError(format string, args ...any) *errors.Error {
	return errors.Newf(400, ReasonValidation, format, args...)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return errors.Reason(err) == ReasonValidation
}
