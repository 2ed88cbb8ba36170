package secscan

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Scanner walks a configuration tree looking for keys that smell like
// secrets, property names that are dangerous in the generated JavaScript
// artifact, and values that cannot be serialized. It is immutable after New
// and safe for concurrent use.
type Scanner struct {
	mode      Mode
	prefix    string
	blocklist []string
	allowlist map[string]bool
	warn      WarnFunc
}

// New constructs a Scanner from the given options.
func New(opts ...Option) *Scanner {
	scanner := &Scanner{
		mode:      ModeError,
		blocklist: DefaultBlocklist(),
		allowlist: make(map[string]bool),
		warn:      func(*Violation) {},
	}

	for _, opt := range opts {
		opt(scanner)
	}

	return scanner
}

// frame is one pending value on the traversal stack. hasKey marks frames
// reached through a mapping entry, whose key must be checked before the
// value is examined. An empty key is still a key.
type frame struct {
	value  any
	path   string
	key    string
	hasKey bool
}

// Scan walks the tree depth-first and returns the first violation, or nil.
// The tree is never mutated. In warn mode, keyword matches go to the warn
// handler and the walk continues; unsafe property names and unsupported
// values end the walk in both modes.
//
// The walk uses an explicit stack, so arbitrarily deep input cannot
// exhaust the goroutine stack.
func (s *Scanner) Scan(root any) error {
	stack := []frame{{value: root, path: s.prefix}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.hasKey {
			if err := s.checkKey(f.key, f.path); err != nil {
				return err
			}
		}

		// Children are pushed in reverse so they pop in document order,
		// keeping "first violation" deterministic.
		switch value := f.value.(type) {
		case nil:
		case map[string]any:
			keys := sortedKeys(value)
			for i := len(keys) - 1; i >= 0; i-- {
				key := keys[i]
				stack = append(stack, frame{
					value:  value[key],
					path:   childPath(f.path, key),
					key:    key,
					hasKey: true,
				})
			}
		case []any:
			for i := len(value) - 1; i >= 0; i-- {
				stack = append(stack, frame{
					value: value[i],
					path:  fmt.Sprintf("%s[%d]", f.path, i),
				})
			}
		default:
			if serializableLeaf(value) {
				continue
			}
			children, ok := reflectChildren(f)
			if !ok {
				return &Violation{Kind: KindUnsupportedValue, Path: f.path, Value: f.value}
			}
			stack = append(stack, children...)
		}
	}

	return nil
}

// checkKey applies the unsafe name and blocklist checks to one mapping key.
func (s *Scanner) checkKey(key, path string) error {
	switch key {
	case "__proto__", "prototype", "constructor":
		return &Violation{Kind: KindUnsafeName, Path: path}
	}

	lowerKey := strings.ToLower(key)
	for _, keyword := range s.blocklist {
		if !strings.Contains(lowerKey, keyword) {
			continue
		}
		if s.allowlist[strings.ToLower(path)] {
			return nil
		}

		violation := &Violation{Kind: KindSecretKeyword, Path: path, Keyword: keyword}
		if s.mode == ModeWarn {
			s.warn(violation)
			return nil
		}
		return violation
	}

	return nil
}

// serializableLeaf reports whether v is an acceptable leaf: a JSON scalar, a
// time value, raw bytes, or anything that knows how to serialize itself.
func serializableLeaf(v any) bool {
	switch v.(type) {
	case bool, string, json.Number, time.Time, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}

	switch v.(type) {
	case json.Marshaler, encoding.TextMarshaler:
		return true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// reflectChildren expands containers that are not the canonical
// map[string]any / []any forms: named map and slice types, arrays, and
// pointers. The frames come back in push order (reversed). ok is false when
// the value is not a traversable container, which the caller reports as an
// unsupported value. Structs without a serialization method land there too:
// the scanner cannot see their field names, and an uninspected subtree must
// not pass the gate.
func reflectChildren(f frame) ([]frame, bool) {
	rv := reflect.ValueOf(f.value)

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		return []frame{{value: rv.Elem().Interface(), path: f.path}}, true

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)

		children := make([]frame, 0, len(keys))
		for i := len(keys) - 1; i >= 0; i-- {
			key := keys[i]
			children = append(children, frame{
				value:  rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface(),
				path:   childPath(f.path, key),
				key:    key,
				hasKey: true,
			})
		}
		return children, true

	case reflect.Slice, reflect.Array:
		children := make([]frame, 0, rv.Len())
		for i := rv.Len() - 1; i >= 0; i-- {
			children = append(children, frame{
				value: rv.Index(i).Interface(),
				path:  fmt.Sprintf("%s[%d]", f.path, i),
			})
		}
		return children, true
	}

	return nil, false
}

// sortedKeys returns the mapping keys in sorted order. Go maps have no
// stable iteration order, so sorting is what makes depth-first scans
// repeatable.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
