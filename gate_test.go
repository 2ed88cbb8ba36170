package buildgate

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrokit-dev/buildgate/jwtverify"
	"github.com/astrokit-dev/buildgate/secscan"
)

const testSecret = "astro-build-secret-0123456789abcdef"

var testNow = time.Unix(1700000000, 0)

func testClock() time.Time { return testNow }

func mintBuildToken(t *testing.T, secret string, claims gojwt.MapClaims) string {
	t.Helper()

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) logf(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) { l.logf("DEBUG", format, args...) }
func (l *recordingLogger) Infof(format string, args ...interface{})  { l.logf("INFO", format, args...) }
func (l *recordingLogger) Warnf(format string, args ...interface{})  { l.logf("WARN", format, args...) }
func (l *recordingLogger) Errorf(format string, args ...interface{}) { l.logf("ERROR", format, args...) }

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

type metricEvent struct {
	name string
	tags map[string]string
}

type recordingMetrics struct {
	mu     sync.Mutex
	events []metricEvent
}

func (m *recordingMetrics) IncCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	m.events = append(m.events, metricEvent{name: name, tags: copied})
}

func (m *recordingMetrics) ObserveHistogram(string, float64, map[string]string) {}
func (m *recordingMetrics) SetGauge(string, float64, map[string]string)        {}

func (m *recordingMetrics) counts(name string) []map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tags []map[string]string
	for _, event := range m.events {
		if event.name == name {
			tags = append(tags, event.tags)
		}
	}
	return tags
}

type recordingTracer struct {
	mu    sync.Mutex
	spans []string
}

func (tr *recordingTracer) StartSpan(operationName string, opts ...interface{}) Span {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.spans = append(tr.spans, operationName)
	return &NoopSpan{}
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv(jwtverify.DefaultTokenEnv, "")
	t.Setenv(jwtverify.DefaultSecretEnv, "")
}

func TestNewGate(t *testing.T) {
	t.Run("it builds with defaults", func(t *testing.T) {
		gate, err := New()
		require.NoError(t, err)
		assert.NotNil(t, gate)
	})

	t.Run("it rejects a nil logger", func(t *testing.T) {
		_, err := New(WithLogger(nil))
		assert.EqualError(t, err, "invalid option: logger cannot be nil")
		assert.ErrorIs(t, err, ErrLoggerNil)
	})

	t.Run("it rejects nil metrics", func(t *testing.T) {
		_, err := New(WithMetrics(nil))
		assert.ErrorIs(t, err, ErrMetricsNil)
	})

	t.Run("it rejects a nil tracer", func(t *testing.T) {
		_, err := New(WithTracer(nil))
		assert.ErrorIs(t, err, ErrTracerNil)
	})

	t.Run("it rejects a nil clock", func(t *testing.T) {
		_, err := New(WithClock(nil))
		assert.ErrorIs(t, err, ErrClockNil)
	})

	t.Run("it rejects a nil warn handler", func(t *testing.T) {
		_, err := New(WithWarnHandler(nil))
		assert.ErrorIs(t, err, ErrWarnHandlerNil)
	})
}

func TestGate_Enforce(t *testing.T) {
	cleanTree := func() map[string]any {
		return map[string]any{
			"version": "1.4.2",
			"apiHost": "api.example.com",
			"flags":   []any{"a", "b"},
		}
	}

	t.Run("it passes a clean tree when no token is configured", func(t *testing.T) {
		clearCredentialEnv(t)

		metrics := &recordingMetrics{}
		gate, err := New(WithClock(testClock), WithMetrics(metrics))
		require.NoError(t, err)

		result, err := gate.Enforce(cleanTree())
		require.NoError(t, err)
		assert.Nil(t, result)

		skipped := metrics.counts(metricVerifications)
		require.Len(t, skipped, 1)
		assert.Equal(t, map[string]string{"outcome": "skipped", "code": "none"}, skipped[0])
	})

	t.Run("it blocks generation when the tree contains a secret-like key", func(t *testing.T) {
		clearCredentialEnv(t)

		metrics := &recordingMetrics{}
		gate, err := New(WithClock(testClock), WithMetrics(metrics))
		require.NoError(t, err)

		result, err := gate.Enforce(map[string]any{"apiSecret": "hunter2"})
		assert.Nil(t, result)
		assert.EqualError(t, err, `generation blocked by secret scan: potential secret at "custom.apiSecret": key matches blocked keyword "secret"`)
		assert.ErrorIs(t, err, ErrGenerationBlocked)
		assert.ErrorIs(t, err, secscan.ErrSecretKeyword)

		violations := metrics.counts(metricScanViolations)
		require.Len(t, violations, 1)
		assert.Equal(t, map[string]string{"kind": "secret_keyword"}, violations[0])
	})

	t.Run("it verifies a supplied token even when not required", func(t *testing.T) {
		clearCredentialEnv(t)

		token := mintBuildToken(t, testSecret, gojwt.MapClaims{
			"iss": "astro-ci",
			"exp": testNow.Add(time.Hour).Unix(),
		})

		metrics := &recordingMetrics{}
		gate, err := New(
			WithClock(testClock),
			WithMetrics(metrics),
			WithTokenVerification(jwtverify.Options{Token: token, Secret: testSecret}),
		)
		require.NoError(t, err)

		result, err := gate.Enforce(cleanTree())
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "astro-ci", result.Payload.Issuer)

		verified := metrics.counts(metricVerifications)
		require.Len(t, verified, 1)
		assert.Equal(t, map[string]string{"outcome": "verified", "code": "none"}, verified[0])
	})

	t.Run("it blocks when the required token is missing", func(t *testing.T) {
		clearCredentialEnv(t)

		gate, err := New(
			WithClock(testClock),
			WithTokenVerification(jwtverify.Options{Required: true, Secret: testSecret}),
		)
		require.NoError(t, err)

		result, err := gate.Enforce(cleanTree())
		assert.Nil(t, result)
		assert.EqualError(t, err, "generation blocked by token verification: no token provided: set the token option or the ASTRO_BUILD_TIME_TOKEN environment variable")
		assert.ErrorIs(t, err, ErrGenerationBlocked)
		assert.ErrorIs(t, err, jwtverify.ErrTokenMissing)
	})

	t.Run("it blocks when the token is expired", func(t *testing.T) {
		clearCredentialEnv(t)

		token := mintBuildToken(t, testSecret, gojwt.MapClaims{
			"exp": testNow.Add(-time.Hour).Unix(),
		})

		metrics := &recordingMetrics{}
		gate, err := New(
			WithClock(testClock),
			WithMetrics(metrics),
			WithTokenVerification(jwtverify.Options{Token: token, Secret: testSecret}),
		)
		require.NoError(t, err)

		_, err = gate.Enforce(cleanTree())
		assert.ErrorIs(t, err, ErrGenerationBlocked)
		assert.ErrorIs(t, err, jwtverify.ErrTokenExpired)

		blocked := metrics.counts(metricVerifications)
		require.Len(t, blocked, 1)
		assert.Equal(t, map[string]string{"outcome": "blocked", "code": "token_expired"}, blocked[0])
	})

	t.Run("it scans before verifying", func(t *testing.T) {
		clearCredentialEnv(t)

		// The token is expired, so a verification-first gate would report
		// ErrTokenExpired. The scan finding must win.
		token := mintBuildToken(t, testSecret, gojwt.MapClaims{
			"exp": testNow.Add(-time.Hour).Unix(),
		})

		gate, err := New(
			WithClock(testClock),
			WithTokenVerification(jwtverify.Options{Token: token, Secret: testSecret, Required: true}),
		)
		require.NoError(t, err)

		_, err = gate.Enforce(map[string]any{"dbPassword": "x"})
		assert.ErrorIs(t, err, secscan.ErrSecretKeyword)
		assert.NotErrorIs(t, err, jwtverify.ErrTokenExpired)
	})

	t.Run("it collects warn-mode findings through the warn handler", func(t *testing.T) {
		clearCredentialEnv(t)

		var found []string
		logger := &recordingLogger{}
		metrics := &recordingMetrics{}

		gate, err := New(
			WithClock(testClock),
			WithLogger(logger),
			WithMetrics(metrics),
			WithSecretScanning(secscan.WithMode(secscan.ModeWarn)),
			WithWarnHandler(func(v *secscan.Violation) {
				found = append(found, v.Path)
			}),
		)
		require.NoError(t, err)

		result, err := gate.Enforce(map[string]any{
			"apiSecret":  "x",
			"dbPassword": "y",
			"version":    "1.0.0",
		})
		require.NoError(t, err)
		assert.Nil(t, result)

		assert.Equal(t, []string{"custom.apiSecret", "custom.dbPassword"}, found)
		assert.Len(t, metrics.counts(metricScanWarnings), 2)

		var warned int
		for _, line := range logger.all() {
			if line == `WARN: secret scan warning: potential secret at "custom.apiSecret": key matches blocked keyword "secret"` ||
				line == `WARN: secret scan warning: potential secret at "custom.dbPassword": key matches blocked keyword "password"` {
				warned++
			}
		}
		assert.Equal(t, 2, warned)
	})

	t.Run("it resolves credentials from the environment end to end", func(t *testing.T) {
		token := mintBuildToken(t, testSecret, gojwt.MapClaims{
			"iss": "astro-ci",
			"exp": testNow.Add(time.Hour).Unix(),
		})
		t.Setenv(jwtverify.DefaultTokenEnv, token)
		t.Setenv(jwtverify.DefaultSecretEnv, testSecret)

		gate, err := New(WithClock(testClock))
		require.NoError(t, err)

		result, err := gate.Enforce(cleanTree())
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "astro-ci", result.Payload.Issuer)
	})

	t.Run("it validates claims at the injected clock", func(t *testing.T) {
		clearCredentialEnv(t)

		token := mintBuildToken(t, testSecret, gojwt.MapClaims{
			"exp": testNow.Add(30 * time.Second).Unix(),
		})
		opts := jwtverify.Options{Token: token, Secret: testSecret}

		fresh, err := New(WithClock(testClock), WithTokenVerification(opts))
		require.NoError(t, err)
		_, err = fresh.Enforce(cleanTree())
		assert.NoError(t, err)

		stale, err := New(
			WithClock(func() time.Time { return testNow.Add(2 * time.Minute) }),
			WithTokenVerification(opts),
		)
		require.NoError(t, err)
		_, err = stale.Enforce(cleanTree())
		assert.ErrorIs(t, err, jwtverify.ErrTokenExpired)
	})

	t.Run("it wraps the stages in tracer spans", func(t *testing.T) {
		clearCredentialEnv(t)

		tracer := &recordingTracer{}
		gate, err := New(WithClock(testClock), WithTracer(tracer))
		require.NoError(t, err)

		_, err = gate.Enforce(cleanTree())
		require.NoError(t, err)
		assert.Equal(t, []string{"buildgate.enforce", "buildgate.scan"}, tracer.spans)
	})

	t.Run("it is safe for concurrent enforcement", func(t *testing.T) {
		clearCredentialEnv(t)

		token := mintBuildToken(t, testSecret, gojwt.MapClaims{
			"exp": testNow.Add(time.Hour).Unix(),
		})
		gate, err := New(
			WithClock(testClock),
			WithLogger(&recordingLogger{}),
			WithMetrics(&recordingMetrics{}),
			WithTokenVerification(jwtverify.Options{Token: token, Secret: testSecret}),
		)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = gate.Enforce(cleanTree())
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("it enforces concurrently through the prometheus sink", func(t *testing.T) {
		clearCredentialEnv(t)

		// Reset the default registry to avoid conflicts with other tests
		prometheus.DefaultRegisterer = prometheus.NewRegistry()

		// A fresh sink registers its collectors lazily on the first count, so
		// every goroutine below races toward that first registration.
		metrics := NewPrometheusMetrics()
		gate, err := New(WithClock(testClock), WithMetrics(metrics))
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = gate.Enforce(cleanTree())
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}

		counter, ok := metrics.(*PrometheusMetrics).counters[metricVerifications]
		require.True(t, ok, "verification counter should be registered")

		written := &dto.Metric{}
		labels := prometheus.Labels{"outcome": "skipped", "code": "none"}
		require.NoError(t, counter.With(labels).(prometheus.Metric).Write(written))
		assert.Equal(t, float64(16), *written.Counter.Value)
	})
}

func TestBlockedError(t *testing.T) {
	t.Run("it exposes the cause through Unwrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := &blockedError{stage: "secret scan", cause: cause}
		assert.EqualError(t, err, "generation blocked by secret scan: boom")
		assert.ErrorIs(t, err, ErrGenerationBlocked)
		assert.Equal(t, cause, errors.Unwrap(err))
	})
}
