package jwtverify

import "errors"

// Sentinel errors for token verification. Every error returned by Verify
// matches exactly one of these via errors.Is.
var (
	// ErrTokenMissing is returned when no token can be resolved from the
	// options or the configured environment variable.
	ErrTokenMissing = errors.New("jwt token missing")

	// ErrSecretMissing is returned when no signing secret can be resolved.
	ErrSecretMissing = errors.New("jwt secret missing")

	// ErrUnsupportedAlgorithm is returned when the requested algorithm
	// allow-list names an algorithm this package does not implement.
	// It is reported before any token parsing happens.
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")

	// ErrTokenMalformed is returned for structural defects: wrong segment
	// count, empty segments, oversized tokens, or header/payload segments
	// that do not decode or parse.
	ErrTokenMalformed = errors.New("jwt malformed")

	// ErrAlgorithmNotAllowed is returned when the token header names an
	// algorithm outside the configured allow-list.
	ErrAlgorithmNotAllowed = errors.New("jwt algorithm not allowed")

	// ErrSignatureInvalid is returned for any signature mismatch. Length
	// and content mismatches are deliberately indistinguishable.
	ErrSignatureInvalid = errors.New("jwt signature verification failed")

	// ErrTokenExpired is returned when exp (plus tolerance) has passed.
	ErrTokenExpired = errors.New("jwt expired")

	// ErrTokenNotYetValid is returned when nbf (minus tolerance) is in the future.
	ErrTokenNotYetValid = errors.New("jwt not yet valid")

	// ErrTokenIssuedInFuture is returned when iat (minus tolerance) is in the future.
	ErrTokenIssuedInFuture = errors.New("jwt issued in the future")

	// ErrIssuerMismatch is returned when the iss claim differs from Options.Issuer.
	ErrIssuerMismatch = errors.New("jwt issuer mismatch")

	// ErrSubjectMismatch is returned when the sub claim differs from Options.Subject.
	ErrSubjectMismatch = errors.New("jwt subject mismatch")

	// ErrAudienceMismatch is returned when the aud claim and Options.Audience
	// share no element.
	ErrAudienceMismatch = errors.New("jwt audience mismatch")
)

// Machine-readable codes carried by VerificationError, suitable for metric
// labels and structured logs.
const (
	CodeTokenMissing         = "token_missing"
	CodeSecretMissing        = "secret_missing"
	CodeUnsupportedAlgorithm = "unsupported_algorithm"
	CodeTokenMalformed       = "token_malformed"
	CodeAlgorithmNotAllowed  = "algorithm_not_allowed"
	CodeSignatureInvalid     = "signature_invalid"
	CodeTokenExpired         = "token_expired"
	CodeTokenNotYetValid     = "token_not_yet_valid"
	CodeTokenIssuedInFuture  = "token_issued_in_future"
	CodeIssuerMismatch       = "issuer_mismatch"
	CodeSubjectMismatch      = "subject_mismatch"
	CodeAudienceMismatch     = "audience_mismatch"
)

// VerificationError is the concrete error type returned by Verify. It pairs a
// machine-readable Code with the human-readable Message and, where one exists,
// the underlying cause.
type VerificationError struct {
	// Code is a machine-readable error code (e.g. "token_expired").
	Code string

	// Message is a human-readable description naming the offending claim,
	// segment, or missing input.
	Message string

	// Details contains the underlying error, if any.
	Details error

	sentinel error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *VerificationError) Unwrap() error {
	return e.Details
}

// Is matches the sentinel the error was created for.
func (e *VerificationError) Is(target error) bool {
	return target == e.sentinel
}

// newError builds a VerificationError bound to one sentinel.
func newError(sentinel error, code, message string, details error) *VerificationError {
	return &VerificationError{
		Code:     code,
		Message:  message,
		Details:  details,
		sentinel: sentinel,
	}
}

// Code extracts the machine-readable code from a verification error, or
// "unknown" for errors produced elsewhere.
func Code(err error) string {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return "unknown"
}
