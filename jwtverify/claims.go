package jwtverify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Audience holds the aud claim. RFC 7519 allows both a bare string and an
// array of strings on the wire; both forms decode into the slice form.
type Audience []string

// UnmarshalJSON accepts "aud": "x" as well as "aud": ["x", "y"].
func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("aud must be a string or an array of strings")
	}
	*a = Audience(many)
	return nil
}

// Contains reports whether the audience includes value.
func (a Audience) Contains(value string) bool {
	for _, aud := range a {
		if aud == value {
			return true
		}
	}
	return false
}

// Header is the decoded first token segment. Known fields are typed; every
// other field lands in Extra.
type Header struct {
	// Algorithm is the alg field. Empty when alg is absent or not a string,
	// which the verifier then rejects against the allow-list.
	Algorithm string

	// Type is the optional typ field, conventionally "JWT".
	Type string

	// KeyID is the optional kid field.
	KeyID string

	// Extra holds all remaining header fields. Nil when there are none.
	Extra map[string]any
}

// UnmarshalJSON fills the typed fields and routes everything else into Extra.
// A known field with an unexpected JSON type is kept in Extra rather than
// dropped.
func (h *Header) UnmarshalJSON(data []byte) error {
	raw, err := decodeObjectFields(data)
	if err != nil {
		return err
	}

	extra := make(map[string]any)
	for name, value := range raw {
		switch name {
		case "alg":
			if s, ok := stringField(value); ok {
				h.Algorithm = s
				continue
			}
		case "typ":
			if s, ok := stringField(value); ok {
				h.Type = s
				continue
			}
		case "kid":
			if s, ok := stringField(value); ok {
				h.KeyID = s
				continue
			}
		}
		v, err := decodeAnyField(value)
		if err != nil {
			return fmt.Errorf("invalid %q field: %w", name, err)
		}
		extra[name] = v
	}
	if len(extra) > 0 {
		h.Extra = extra
	}
	return nil
}

// Payload is the decoded second token segment: the registered claims the
// verifier understands plus an open bag of everything else.
type Payload struct {
	// Issuer is the iss claim.
	Issuer string

	// Subject is the sub claim.
	Subject string

	// Audience is the aud claim, normalized to a slice.
	Audience Audience

	// ExpiresAt, NotBefore and IssuedAt are the exp/nbf/iat claims in whole
	// seconds since the Unix epoch. Nil when the claim is absent.
	ExpiresAt *int64
	NotBefore *int64
	IssuedAt  *int64

	// Extra holds all claims outside the registered set, including any
	// registered claim that arrived with an unexpected JSON type (except the
	// time claims, which must be numeric). Nil when there are none.
	Extra map[string]any
}

// UnmarshalJSON fills the registered claims and routes the rest into Extra.
// Time claims that are present but not numeric make the payload invalid: a
// token that cannot be checked for expiry must not pass as unexpired.
func (p *Payload) UnmarshalJSON(data []byte) error {
	raw, err := decodeObjectFields(data)
	if err != nil {
		return err
	}

	extra := make(map[string]any)
	for name, value := range raw {
		switch name {
		case "iss":
			if s, ok := stringField(value); ok {
				p.Issuer = s
				continue
			}
		case "sub":
			if s, ok := stringField(value); ok {
				p.Subject = s
				continue
			}
		case "aud":
			var aud Audience
			if err := json.Unmarshal(value, &aud); err == nil {
				p.Audience = aud
				continue
			}
		case "exp", "nbf", "iat":
			sec, err := numericDate(value)
			if err != nil {
				return fmt.Errorf("invalid %s claim: %w", name, err)
			}
			switch name {
			case "exp":
				p.ExpiresAt = sec
			case "nbf":
				p.NotBefore = sec
			case "iat":
				p.IssuedAt = sec
			}
			continue
		}
		v, err := decodeAnyField(value)
		if err != nil {
			return fmt.Errorf("invalid %q claim: %w", name, err)
		}
		extra[name] = v
	}
	if len(extra) > 0 {
		p.Extra = extra
	}
	return nil
}

// Result is the outcome of a successful verification: the header and payload
// exactly as they appeared in the token. Callers treat it as read-only
// evidence that generation is authorized.
type Result struct {
	Header  Header
	Payload Payload
}

// decodeObjectFields parses data as a JSON object and returns its fields
// undecoded. Arrays, scalars, and trailing garbage are all rejected here.
func decodeObjectFields(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// stringField decodes a JSON string, reporting whether the value was one.
func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// numericDate decodes a JSON number into whole seconds since the epoch.
// Fractional seconds truncate toward zero.
func numericDate(raw json.RawMessage) (*int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.New("must be a number of seconds since the epoch")
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	sec := int64(f)
	return &sec, nil
}

// decodeAnyField decodes an arbitrary JSON value, keeping numbers as
// json.Number so large integer claims survive the round trip.
func decodeAnyField(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
