package buildgate

import (
	"errors"
	"time"

	"github.com/astrokit-dev/buildgate/jwtverify"
	"github.com/astrokit-dev/buildgate/secscan"
)

// Option configures the Gate.
// Returns error for validation failures.
type Option func(*Gate) error

// WithSecretScanning passes options through to the secret scanner, e.g.
// extra blocklist keywords, allow-listed paths, or warn mode. The scan root
// is always ScanPathPrefix regardless of these options.
//
// Example:
//
//	gate, err := buildgate.New(
//	    buildgate.WithSecretScanning(
//	        secscan.WithMode(secscan.ModeWarn),
//	        secscan.WithAllowlist("custom.publicTokenName"),
//	    ),
//	)
func WithSecretScanning(opts ...secscan.Option) Option {
	return func(g *Gate) error {
		g.scanOpts = append(g.scanOpts, opts...)
		return nil
	}
}

// WithTokenVerification sets the token verification options. The zero value
// verifies an HS256 token resolved from the default environment variables;
// see jwtverify.Options for the full set of knobs.
//
// Default: verification runs only when a token is resolvable.
func WithTokenVerification(opts jwtverify.Options) Option {
	return func(g *Gate) error {
		g.jwt = opts
		return nil
	}
}

// WithWarnHandler sets a callback receiving each warn-mode scanner finding,
// after the gate has logged and counted it. Useful for collecting findings
// into a report.
func WithWarnHandler(fn secscan.WarnFunc) Option {
	return func(g *Gate) error {
		if fn == nil {
			return ErrWarnHandlerNil
		}
		g.warnFunc = fn
		return nil
	}
}

// WithLogger sets the logger used throughout the gate.
//
// Default: DefaultLogger, which writes through the standard library.
func WithLogger(logger Logger) Option {
	return func(g *Gate) error {
		if logger == nil {
			return ErrLoggerNil
		}
		g.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink for scan and verification outcomes.
//
// Default: NoopMetrics.
func WithMetrics(metrics Metrics) Option {
	return func(g *Gate) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		g.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer wrapping the enforce, scan, and verify stages.
//
// Default: NoopTracer.
func WithTracer(tracer Tracer) Option {
	return func(g *Gate) error {
		if tracer == nil {
			return ErrTracerNil
		}
		g.tracer = tracer
		return nil
	}
}

// WithClock sets the time source for claim validation.
//
// Default: time.Now.
func WithClock(clock func() time.Time) Option {
	return func(g *Gate) error {
		if clock == nil {
			return ErrClockNil
		}
		g.clock = clock
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrLoggerNil      = errors.New("logger cannot be nil")
	ErrMetricsNil     = errors.New("metrics cannot be nil")
	ErrTracerNil      = errors.New("tracer cannot be nil")
	ErrClockNil       = errors.New("clock cannot be nil")
	ErrWarnHandlerNil = errors.New("warn handler cannot be nil")
)
