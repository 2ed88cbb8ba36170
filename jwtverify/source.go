package jwtverify

import (
	"fmt"
	"os"
)

// Source yields a credential value. An empty string with a nil error means
// the source had nothing to offer; that is not an error, so lookup can fall
// through to the next source in a chain.
type Source func() (string, error)

// StaticSource returns a Source that always yields value.
func StaticSource(value string) Source {
	return func() (string, error) {
		return value, nil
	}
}

// EnvSource returns a Source that reads the named environment variable.
func EnvSource(name string) Source {
	return func() (string, error) {
		return os.Getenv(name), nil
	}
}

// MultiSource returns a Source that tries each source in order and yields the
// first non-empty value. If a source fails, that error is returned
// immediately.
func MultiSource(sources ...Source) Source {
	return func() (string, error) {
		for _, src := range sources {
			value, err := src()
			if err != nil {
				return "", err
			}
			if value != "" {
				return value, nil
			}
		}
		return "", nil
	}
}

// resolveToken resolves the token per the precedence rule: explicit option
// first, then the named environment variable.
func resolveToken(o Options) (string, error) {
	token, err := MultiSource(StaticSource(o.Token), EnvSource(o.TokenEnv))()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", newError(
			ErrTokenMissing,
			CodeTokenMissing,
			fmt.Sprintf("no token provided: set the token option or the %s environment variable", o.TokenEnv),
			nil,
		)
	}
	return token, nil
}

// resolveSecret resolves the shared secret with the same precedence rule.
func resolveSecret(o Options) (string, error) {
	secret, err := MultiSource(StaticSource(o.Secret), EnvSource(o.SecretEnv))()
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", newError(
			ErrSecretMissing,
			CodeSecretMissing,
			fmt.Sprintf("no signing secret provided: set the secret option or the %s environment variable", o.SecretEnv),
			nil,
		)
	}
	return secret, nil
}

// TokenPresent reports whether a token is resolvable from the options or the
// environment, without verifying anything. Callers use it to decide whether a
// supplied-but-not-required token should still be checked.
func TokenPresent(o Options) bool {
	o = o.withDefaults()
	token, err := MultiSource(StaticSource(o.Token), EnvSource(o.TokenEnv))()
	return err == nil && token != ""
}
