package buildgate

import (
	"errors"
	"fmt"
	"time"

	"github.com/astrokit-dev/buildgate/jwtverify"
	"github.com/astrokit-dev/buildgate/secscan"
)

// ScanPathPrefix is the semantic root under which caller-supplied constants
// are scanned. Violation paths and allow-list entries both start here, e.g.
// "custom.apiSecret".
const ScanPathPrefix = "custom"

// Metric names reported through the Metrics interface.
const (
	metricScanViolations = "buildgate_scan_violations_total"
	metricScanWarnings   = "buildgate_scan_warnings_total"
	metricVerifications  = "buildgate_verification_total"
)

// Gate enforces the security policy in front of constants generation: the
// candidate tree is always scanned for secrets, and when token verification
// is required or a token is supplied, the token must verify. A Gate holds no
// mutable state after New and is safe for concurrent Enforce calls.
type Gate struct {
	scanner *secscan.Scanner
	jwt     jwtverify.Options
	logger  Logger
	metrics Metrics
	tracer  Tracer
	clock   func() time.Time
	verify  func(jwtverify.Options, time.Time) (*jwtverify.Result, error)

	// Temporary fields used during construction
	scanOpts []secscan.Option
	warnFunc secscan.WarnFunc
}

// New constructs a Gate with the supplied options.
//
// Example:
//
//	gate, err := buildgate.New(
//	    buildgate.WithSecretScanning(secscan.WithAllowlist("custom.publicTokenName")),
//	    buildgate.WithTokenVerification(jwtverify.Options{Issuer: "astro-ci", Required: true}),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create gate: %v", err)
//	}
func New(opts ...Option) (*Gate, error) {
	gate := &Gate{
		clock:  time.Now,
		verify: jwtverify.Verify,
	}

	for _, opt := range opts {
		if err := opt(gate); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	gate.applyDefaults()
	gate.buildScanner()

	return gate, nil
}

// applyDefaults sets default values for optional fields not set by options.
func (g *Gate) applyDefaults() {
	if g.logger == nil {
		g.logger = &DefaultLogger{}
	}
	if g.metrics == nil {
		g.metrics = &NoopMetrics{}
	}
	if g.tracer == nil {
		g.tracer = &NoopTracer{}
	}
}

// buildScanner assembles the scanner from the collected options plus the
// gate's own plumbing. The path prefix and warn handler are appended last:
// the scan root is fixed by contract, and warn findings must reach the
// gate's logger and metrics regardless of caller options.
func (g *Gate) buildScanner() {
	warnFunc := g.warnFunc
	warn := func(v *secscan.Violation) {
		g.logger.Warnf("secret scan warning: %s", v)
		g.metrics.IncCounter(metricScanWarnings, map[string]string{"keyword": v.Keyword})
		if warnFunc != nil {
			warnFunc(v)
		}
	}

	scanOpts := append([]secscan.Option{}, g.scanOpts...)
	scanOpts = append(scanOpts,
		secscan.WithPathPrefix(ScanPathPrefix),
		secscan.WithWarnHandler(warn),
	)
	g.scanner = secscan.New(scanOpts...)

	g.scanOpts = nil
	g.warnFunc = nil
}

// Enforce runs the gate against a candidate constants tree. The scan always
// runs. Token verification runs when the options mark it required or when a
// token is resolvable from the options or environment; otherwise Enforce
// returns (nil, nil) and generation may proceed without token evidence.
//
// Every failure matches ErrGenerationBlocked, with the scanner or verifier
// error reachable through errors.Is and errors.As.
func (g *Gate) Enforce(tree any) (*jwtverify.Result, error) {
	span := g.tracer.StartSpan("buildgate.enforce")
	defer span.Finish()

	if err := g.scanTree(tree); err != nil {
		return nil, err
	}

	if !g.jwt.Required && !jwtverify.TokenPresent(g.jwt) {
		g.logger.Debugf("token verification skipped: not required and no token supplied")
		g.countVerification("skipped", "none")
		return nil, nil
	}

	return g.verifyToken()
}

func (g *Gate) scanTree(tree any) error {
	span := g.tracer.StartSpan("buildgate.scan")
	defer span.Finish()

	g.logger.Debugf("scanning constants tree under %q", ScanPathPrefix)

	if err := g.scanner.Scan(tree); err != nil {
		kind := "unknown"
		var violation *secscan.Violation
		if errors.As(err, &violation) {
			kind = string(violation.Kind)
		}

		span.SetTag("error", true)
		g.logger.Errorf("secret scan failed: %v", err)
		g.metrics.IncCounter(metricScanViolations, map[string]string{"kind": kind})
		return &blockedError{stage: "secret scan", cause: err}
	}

	g.logger.Debugf("secret scan passed")
	return nil
}

func (g *Gate) verifyToken() (*jwtverify.Result, error) {
	span := g.tracer.StartSpan("buildgate.verify")
	defer span.Finish()

	result, err := g.verify(g.jwt, g.clock())
	if err != nil {
		span.SetTag("error", true)
		g.logger.Errorf("token verification failed: %v", err)
		g.countVerification("blocked", jwtverify.Code(err))
		return nil, &blockedError{stage: "token verification", cause: err}
	}

	g.logger.Debugf("token verification succeeded")
	g.countVerification("verified", "none")
	return result, nil
}

func (g *Gate) countVerification(outcome, code string) {
	g.metrics.IncCounter(metricVerifications, map[string]string{
		"outcome": outcome,
		"code":    code,
	})
}
