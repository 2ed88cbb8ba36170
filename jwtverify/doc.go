/*
Package jwtverify validates compact HMAC-signed JWTs against a shared secret.

The package implements the token check that gates build-time constants
generation. It deliberately owns the full verification pipeline: segment
splitting, base64url decoding, HMAC recomputation, constant-time signature
comparison, and claim checks. Owning every step keeps each failure mode
reported exactly once, and signature failures never reveal whether length or
content differed.

# Supported Algorithms

HMAC only:
  - HS256 (HMAC using SHA-256)
  - HS384 (HMAC using SHA-384)
  - HS512 (HMAC using SHA-512)

Asymmetric algorithms are intentionally unsupported: the token is exchanged
between a CI secret store and the build step, which share one secret.

# Basic Usage

	opts := jwtverify.Options{
	    Issuer:   "ci.example.com",
	    Audience: []string{"build"},
	}
	result, err := jwtverify.Verify(opts, time.Now())
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(result.Payload.Subject)

Token and secret resolve from Options.Token / Options.Secret first, then from
the environment variables named by Options.TokenEnv / Options.SecretEnv
(ASTRO_BUILD_TIME_TOKEN and ASTRO_BUILD_TIME_SECRET unless overridden).

# Claim Checks

exp, nbf, and iat are evaluated against the caller-supplied time with
Options.ClockTolerance of skew (60s unless set; negative disables skew
entirely). Issuer and subject must match exactly when configured; audience
matching succeeds when the expected set and the token's aud share at least
one element.

All errors match a package sentinel via errors.Is, e.g.:

	if errors.Is(err, jwtverify.ErrTokenExpired) {
	    // re-issue the token
	}
*/
package jwtverify
