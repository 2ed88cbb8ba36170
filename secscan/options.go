package secscan

import "strings"

// Mode selects how secret keyword matches are reported.
type Mode string

const (
	// ModeError stops the scan at the first keyword match.
	ModeError = Mode("error")

	// ModeWarn reports keyword matches through the warn handler and keeps
	// scanning. Unsafe property names and unsupported values still fail.
	ModeWarn = Mode("warn")
)

// WarnFunc receives secret keyword findings in warn mode.
type WarnFunc func(*Violation)

// defaultBlocklist is the built-in keyword set, all lowercase. Matching is
// by substring, so "private" also catches "privateKey".
var defaultBlocklist = []string{
	"secret",
	"token",
	"password",
	"passwd",
	"pwd",
	"apikey",
	"api_key",
	"api-key",
	"accesskey",
	"access_key",
	"access-key",
	"credential",
	"private",
}

// DefaultBlocklist returns a copy of the built-in keyword set.
func DefaultBlocklist() []string {
	blocklist := make([]string, len(defaultBlocklist))
	copy(blocklist, defaultBlocklist)
	return blocklist
}

// Option is how options for the Scanner are set up.
type Option func(*Scanner)

// WithMode sets how keyword matches are reported.
// Default value: ModeError.
func WithMode(mode Mode) Option {
	return func(s *Scanner) {
		s.mode = mode
	}
}

// WithBlocklist adds keywords to the built-in blocklist. Entries are
// lowercased; matching is by substring against the lowercased key.
func WithBlocklist(keywords ...string) Option {
	return func(s *Scanner) {
		for _, keyword := range keywords {
			s.blocklist = append(s.blocklist, strings.ToLower(keyword))
		}
	}
}

// WithAllowlist registers exact paths whose keyword matches are suppressed.
// Entries are lowercased; they never suppress unsafe property names or
// unsupported values.
func WithAllowlist(paths ...string) Option {
	return func(s *Scanner) {
		for _, path := range paths {
			s.allowlist[strings.ToLower(path)] = true
		}
	}
}

// WithPathPrefix sets the path under which the scanned tree is reported,
// e.g. "custom" so a root key "apiSecret" surfaces as "custom.apiSecret".
// Default value: "" (paths start at the root keys).
func WithPathPrefix(prefix string) Option {
	return func(s *Scanner) {
		s.prefix = prefix
	}
}

// WithWarnHandler sets the callback invoked for each keyword match in warn
// mode. The handler must be safe for concurrent use if the Scanner is.
// Default value: a no-op.
func WithWarnHandler(fn WarnFunc) Option {
	return func(s *Scanner) {
		if fn != nil {
			s.warn = fn
		}
	}
}
