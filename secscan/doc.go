// Package secscan guards configuration trees that are about to be embedded
// into a generated artifact. It walks an arbitrarily nested value and flags
// keys that look like secrets (by keyword blocklist), property names that are
// unsafe to emit into JavaScript, and leaf values that cannot be serialized.
//
// Matching is case-insensitive and path-aware: a finding at
// "custom.apiSecret" can be suppressed by allow-listing exactly that path,
// while the blocklist itself matches substrings of individual keys. In the
// default error mode the first finding stops the scan; warn mode reports
// keyword findings through a callback and keeps going, so a migration can
// inventory findings before enforcement is switched on.
//
//	scanner := secscan.New(
//		secscan.WithPathPrefix("custom"),
//		secscan.WithAllowlist("custom.publicTokenName"),
//	)
//	if err := scanner.Scan(tree); err != nil {
//		// the error names the offending path and keyword
//	}
package secscan
