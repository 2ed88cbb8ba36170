package jwtverify

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"time"
)

// Algorithm is an HMAC signature algorithm.
type Algorithm string

// Supported signature algorithms.
const (
	HS256 = Algorithm("HS256") // HMAC using SHA-256
	HS384 = Algorithm("HS384") // HMAC using SHA-384
	HS512 = Algorithm("HS512") // HMAC using SHA-512
)

// Default environment variables consulted when Options.Token or
// Options.Secret are empty.
const (
	DefaultTokenEnv  = "ASTRO_BUILD_TIME_TOKEN"
	DefaultSecretEnv = "ASTRO_BUILD_TIME_SECRET"
)

// DefaultClockTolerance is the permitted clock skew for time-based claims
// when Options.ClockTolerance is zero.
const DefaultClockTolerance = 60 * time.Second

// hashForAlgorithm maps each supported algorithm to its HMAC hash
// constructor. The map is never mutated after initialization.
var hashForAlgorithm = map[Algorithm]func() hash.Hash{
	HS256: sha256.New,
	HS384: sha512.New384,
	HS512: sha512.New,
}

// Options configures a single Verify call. The zero value verifies an
// HS256 token resolved entirely from the default environment variables.
type Options struct {
	// Token is the compact token to verify. When empty, the environment
	// variable named by TokenEnv is consulted.
	Token string

	// TokenEnv overrides the environment variable name for the token.
	// Defaults to DefaultTokenEnv.
	TokenEnv string

	// Secret is the shared HMAC secret. When empty, the environment
	// variable named by SecretEnv is consulted.
	Secret string

	// SecretEnv overrides the environment variable name for the secret.
	// Defaults to DefaultSecretEnv.
	SecretEnv string

	// Issuer, when set, must equal the token's iss claim exactly.
	Issuer string

	// Subject, when set, must equal the token's sub claim exactly.
	Subject string

	// Audience, when non-empty, must share at least one element with the
	// token's aud claim.
	Audience []string

	// Required marks verification as mandatory for the calling gate. Verify
	// itself always runs when invoked; the flag is interpreted by callers
	// deciding whether to invoke it.
	Required bool

	// Algorithms is the allow-list of acceptable header algorithms.
	// Defaults to HS256 only.
	Algorithms []Algorithm

	// ClockTolerance is the permitted skew when evaluating exp, nbf and iat.
	// The zero value selects DefaultClockTolerance; a negative value disables
	// skew entirely, so claims are evaluated at exactly the supplied time.
	ClockTolerance time.Duration
}

// withDefaults returns a copy of o with unset fields filled in.
func (o Options) withDefaults() Options {
	if o.TokenEnv == "" {
		o.TokenEnv = DefaultTokenEnv
	}
	if o.SecretEnv == "" {
		o.SecretEnv = DefaultSecretEnv
	}
	if len(o.Algorithms) == 0 {
		o.Algorithms = []Algorithm{HS256}
	}
	if o.ClockTolerance == 0 {
		o.ClockTolerance = DefaultClockTolerance
	}
	if o.ClockTolerance < 0 {
		o.ClockTolerance = 0
	}
	return o
}

// allowedSet validates the requested algorithms against the supported set and
// returns them as a lookup table. Unknown algorithms fail before any token
// material is touched.
func allowedSet(algorithms []Algorithm) (map[Algorithm]bool, error) {
	allowed := make(map[Algorithm]bool, len(algorithms))
	for _, alg := range algorithms {
		if _, ok := hashForAlgorithm[alg]; !ok {
			return nil, newError(
				ErrUnsupportedAlgorithm,
				CodeUnsupportedAlgorithm,
				fmt.Sprintf("unsupported signature algorithm %q: supported algorithms are HS256, HS384, HS512", alg),
				nil,
			)
		}
		allowed[alg] = true
	}
	return allowed, nil
}
