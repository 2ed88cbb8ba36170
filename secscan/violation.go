package secscan

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three violation kinds. Every error returned by
// Scan matches exactly one of these via errors.Is.
var (
	// ErrSecretKeyword is returned when a configuration key contains a
	// blocked keyword and its path is not allow-listed.
	ErrSecretKeyword = errors.New("potential secret in configuration")

	// ErrUnsafeName is returned for keys that would collide with JavaScript
	// object internals in the generated artifact.
	ErrUnsafeName = errors.New("unsafe property name in configuration")

	// ErrUnsupportedValue is returned for leaf values that cannot be
	// serialized into the artifact, and whose contents the scanner therefore
	// cannot inspect.
	ErrUnsupportedValue = errors.New("unsupported configuration value")
)

// Kind labels a violation category. The values double as metric and log
// labels.
type Kind string

// Violation kinds.
const (
	KindSecretKeyword    Kind = "secret_keyword"
	KindUnsafeName       Kind = "unsafe_name"
	KindUnsupportedValue Kind = "unsupported_value"
)

// Violation describes a single finding. In error mode it is returned from
// Scan; in warn mode secret keyword findings are delivered to the configured
// WarnFunc instead.
type Violation struct {
	// Kind is the violation category.
	Kind Kind

	// Path locates the finding in the scanned tree, in the original key
	// case, e.g. "custom.apiSecret" or "custom.hosts[2]".
	Path string

	// Keyword is the blocklist entry that matched. Set only for
	// KindSecretKeyword.
	Keyword string

	// Value is the offending leaf. Set only for KindUnsupportedValue.
	Value any
}

// Error implements the error interface.
func (v *Violation) Error() string {
	switch v.Kind {
	case KindSecretKeyword:
		return fmt.Sprintf("potential secret at %q: key matches blocked keyword %q", v.Path, v.Keyword)
	case KindUnsafeName:
		return fmt.Sprintf("unsafe property name at %q", v.Path)
	case KindUnsupportedValue:
		return fmt.Sprintf("unsupported value at %q: type %T cannot be serialized", v.Path, v.Value)
	}
	return fmt.Sprintf("configuration violation at %q", v.Path)
}

// Is matches the sentinel for the violation's kind.
func (v *Violation) Is(target error) bool {
	switch target {
	case ErrSecretKeyword:
		return v.Kind == KindSecretKeyword
	case ErrUnsafeName:
		return v.Kind == KindUnsafeName
	case ErrUnsupportedValue:
		return v.Kind == KindUnsupportedValue
	}
	return false
}
