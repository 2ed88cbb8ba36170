package jwtverify

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// maxTokenLength caps the accepted token size. Valid build tokens are a few
// hundred bytes; anything near this limit is garbage or an attack.
const maxTokenLength = 1 << 20

// Verify checks the token resolved from opts against the shared secret and
// the configured claims. Time-based claims are evaluated at now, so callers
// control the clock. On success the decoded header and payload are returned
// unchanged; on any structural, cryptographic, or claim violation an error
// matching one of the package sentinels is returned instead.
//
// The secret and token are not retained beyond the call.
func Verify(opts Options, now time.Time) (*Result, error) {
	opts = opts.withDefaults()

	allowed, err := allowedSet(opts.Algorithms)
	if err != nil {
		return nil, err
	}

	token, err := resolveToken(opts)
	if err != nil {
		return nil, err
	}
	secret, err := resolveSecret(opts)
	if err != nil {
		return nil, err
	}

	headerSeg, payloadSeg, signatureSeg, err := splitToken(token)
	if err != nil {
		return nil, err
	}

	var header Header
	if err := decodeSegment(headerSeg, "header", &header); err != nil {
		return nil, err
	}

	alg := Algorithm(header.Algorithm)
	if !allowed[alg] {
		return nil, newError(
			ErrAlgorithmNotAllowed,
			CodeAlgorithmNotAllowed,
			fmt.Sprintf("token header algorithm %q is not in the allowed set", header.Algorithm),
			nil,
		)
	}

	// The signature covers the two raw segments joined by a dot, and it is
	// checked before the payload is parsed.
	mac := hmac.New(hashForAlgorithm[alg], []byte(secret))
	mac.Write([]byte(headerSeg + "." + payloadSeg))
	expected := mac.Sum(nil)

	// hmac.Equal compares in constant time; length and content mismatches
	// share one error, as does a signature segment that fails to decode.
	provided, err := base64.RawURLEncoding.DecodeString(signatureSeg)
	if err != nil || !hmac.Equal(expected, provided) {
		return nil, newError(
			ErrSignatureInvalid,
			CodeSignatureInvalid,
			"signature verification failed",
			nil,
		)
	}

	var payload Payload
	if err := decodeSegment(payloadSeg, "payload", &payload); err != nil {
		return nil, err
	}

	if err := validateClaims(payload, opts, now); err != nil {
		return nil, err
	}

	return &Result{Header: header, Payload: payload}, nil
}

// splitToken cuts the compact form into its three segments. Each segment must
// be non-empty.
func splitToken(token string) (header, payload, signature string, err error) {
	malformed := func(message string) error {
		return newError(ErrTokenMalformed, CodeTokenMalformed, message, nil)
	}

	if len(token) > maxTokenLength {
		return "", "", "", malformed(fmt.Sprintf("token length %d exceeds limit %d", len(token), maxTokenLength))
	}
	if strings.Count(token, ".") != 2 {
		return "", "", "", malformed("token must have three segments separated by dots")
	}

	parts := strings.SplitN(token, ".", 3)
	for i, part := range parts {
		if part == "" {
			segment := [...]string{"header", "payload", "signature"}[i]
			return "", "", "", malformed(fmt.Sprintf("token %s segment is empty", segment))
		}
	}
	return parts[0], parts[1], parts[2], nil
}

// decodeSegment base64url-decodes and JSON-parses one named segment into dst.
// Both failure modes collapse into a single parse error naming the segment.
func decodeSegment(segment, name string, dst any) error {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return newError(
			ErrTokenMalformed,
			CodeTokenMalformed,
			fmt.Sprintf("failed to parse token %s segment", name),
			err,
		)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return newError(
			ErrTokenMalformed,
			CodeTokenMalformed,
			fmt.Sprintf("failed to parse token %s segment", name),
			err,
		)
	}
	return nil
}

// validateClaims checks the registered claims against the options, evaluating
// time-based claims at now with the configured tolerance.
func validateClaims(payload Payload, opts Options, now time.Time) error {
	tolerance := int64(opts.ClockTolerance / time.Second)
	at := now.Unix()

	if payload.ExpiresAt != nil && at >= *payload.ExpiresAt+tolerance {
		return newError(
			ErrTokenExpired,
			CodeTokenExpired,
			fmt.Sprintf("token expired at %d (now %d, tolerance %ds)", *payload.ExpiresAt, at, tolerance),
			nil,
		)
	}

	if payload.NotBefore != nil && at < *payload.NotBefore-tolerance {
		return newError(
			ErrTokenNotYetValid,
			CodeTokenNotYetValid,
			fmt.Sprintf("token not valid before %d (now %d, tolerance %ds)", *payload.NotBefore, at, tolerance),
			nil,
		)
	}

	if payload.IssuedAt != nil && *payload.IssuedAt-tolerance > at {
		return newError(
			ErrTokenIssuedInFuture,
			CodeTokenIssuedInFuture,
			fmt.Sprintf("token issued at %d which is in the future (now %d, tolerance %ds)", *payload.IssuedAt, at, tolerance),
			nil,
		)
	}

	if opts.Issuer != "" && payload.Issuer != opts.Issuer {
		return newError(
			ErrIssuerMismatch,
			CodeIssuerMismatch,
			fmt.Sprintf("token issuer %q does not match expected issuer %q", payload.Issuer, opts.Issuer),
			nil,
		)
	}

	if opts.Subject != "" && payload.Subject != opts.Subject {
		return newError(
			ErrSubjectMismatch,
			CodeSubjectMismatch,
			fmt.Sprintf("token subject %q does not match expected subject %q", payload.Subject, opts.Subject),
			nil,
		)
	}

	if len(opts.Audience) > 0 {
		found := false
		for _, want := range opts.Audience {
			if payload.Audience.Contains(want) {
				found = true
				break
			}
		}
		if !found {
			return newError(
				ErrAudienceMismatch,
				CodeAudienceMismatch,
				fmt.Sprintf("token audience %v does not include any expected audience %v", []string(payload.Audience), opts.Audience),
				nil,
			)
		}
	}

	return nil
}
