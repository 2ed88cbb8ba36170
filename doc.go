/*
Package buildgate guards the generation of build-time constants.

Before a constants artifact is written, two checks run: the caller-supplied
configuration tree is scanned for values that look like secrets, and, when
configured, a signed build token is verified. Only when both pass may the
calling pipeline write output. The scanner lives in secscan, the verifier in
jwtverify; this package ties them together behind a single Enforce call.

# Quick Start

	import (
	    "github.com/astrokit-dev/buildgate"
	    "github.com/astrokit-dev/buildgate/jwtverify"
	)

	func main() {
	    gate, err := buildgate.New(
	        buildgate.WithTokenVerification(jwtverify.Options{
	            Issuer:   "astro-ci",
	            Audience: []string{"astro-build"},
	            Required: true,
	        }),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    result, err := gate.Enforce(map[string]any{
	        "version": "1.4.2",
	        "apiHost": "api.example.com",
	    })
	    if err != nil {
	        // generation must not proceed
	        log.Fatal(err)
	    }
	    if result != nil {
	        log.Printf("authorized by %s", result.Payload.Subject)
	    }
	}

The token and signing secret default to the ASTRO_BUILD_TIME_TOKEN and
ASTRO_BUILD_TIME_SECRET environment variables, so a CI pipeline usually
needs no explicit credentials in code.

# Secret Scanning

Every Enforce call scans the tree under the path "custom". Keys containing
blocklisted keywords (secret, token, password, ...) fail the gate unless
their exact path is allow-listed:

	gate, err := buildgate.New(
	    buildgate.WithSecretScanning(
	        secscan.WithAllowlist("custom.publicTokenName"),
	        secscan.WithBlocklist("internal"),
	    ),
	)

Warn mode reports findings without failing, for inventorying an existing
configuration before enforcement is switched on:

	gate, err := buildgate.New(
	    buildgate.WithSecretScanning(secscan.WithMode(secscan.ModeWarn)),
	    buildgate.WithWarnHandler(func(v *secscan.Violation) {
	        report = append(report, v.Path)
	    }),
	)

Keys named __proto__, prototype, or constructor and values that cannot be
serialized always fail, in both modes.

# Token Verification

Verification runs when the options mark it required, or when a token is
resolvable even though not required. With neither, Enforce returns
(nil, nil) and generation proceeds without token evidence. See jwtverify
for the claim checks and the error taxonomy.

# Error Handling

Every Enforce failure matches ErrGenerationBlocked; the cause stays
reachable on the same value:

	if _, err := gate.Enforce(tree); err != nil {
	    switch {
	    case errors.Is(err, secscan.ErrSecretKeyword):
	        // a configuration key matched the blocklist
	    case errors.Is(err, jwtverify.ErrTokenExpired):
	        // the build token needs reissuing
	    }
	}

# Observability

The gate logs each stage through the Logger interface (adapters for zap,
zerolog, and logrus are provided), counts outcomes through the Metrics
interface (a Prometheus implementation is provided), and wraps stages in
Tracer spans (an OpenTelemetry adapter is provided). All three default to
doing nothing, or next to it.

# Thread Safety

A Gate is immutable after New and safe for concurrent Enforce calls; the
scanner and verifier keep no shared state between calls.
*/
package buildgate
