// Package oauthstate packs the data the client needs after a social login
// round trip into the provider's state parameter.
//
// A serialized payload is a list of fields separated by '|'. Each field is
// "name:value". The redirect params map is first flattened to "k=v" pairs
// separated by ','. Every name, key and value is query-escaped before it is
// joined, and query escaping always escapes the four delimiters, so no
// delimiter can appear inside a field.
package oauthstate

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	fieldSep    = "|"
	keyValueSep = ":"
	paramSep    = ","
	paramKVSep  = "="
)

// Field names in serialization order.
const (
	FieldState           = "state"
	FieldRedirectPageURL = "redirectPageUrl"
	FieldRedirectParams  = "redirectParams"
	FieldUserTypeBit     = "userTypeBit"
	FieldIsLogin         = "isLogin"
)

// ErrMalformedState is returned when a state string cannot be decoded.
var ErrMalformedState = errors.New("malformed oauth state")

// Payload is what travels through the provider. Nil or empty fields are
// absent from the serialized form.
type Payload struct {
	// State is the provider's own opaque state token.
	State           string
	RedirectPageURL string
	// RedirectParams treats nil and empty alike: both serialize as absent
	// and decode as nil.
	RedirectParams map[string]string
	UserTypeBit     *int
	IsLogin         *bool
}

type fieldCodec struct {
	name   string
	encode func(p *Payload) (string, bool)
	decode func(p *Payload, raw string) error
}

var fields = []fieldCodec{
	{
		name: FieldState,
		encode: func(p *Payload) (string, bool) {
			return p.State, p.State != ""
		},
		decode: func(p *Payload, raw string) error {
			p.State = raw
			return nil
		},
	},
	{
		name: FieldRedirectPageURL,
		encode: func(p *Payload) (string, bool) {
			return p.RedirectPageURL, p.RedirectPageURL != ""
		},
		decode: func(p *Payload, raw string) error {
			p.RedirectPageURL = raw
			return nil
		},
	},
	{
		name: FieldRedirectParams,
		encode: func(p *Payload) (string, bool) {
			if len(p.RedirectParams) == 0 {
				return "", false
			}
			return encodeParams(p.RedirectParams), true
		},
		decode: func(p *Payload, raw string) error {
			params, err := decodeParams(raw)
			if err != nil {
				return err
			}
			p.RedirectParams = params
			return nil
		},
	},
	{
		name: FieldUserTypeBit,
		encode: func(p *Payload) (string, bool) {
			if p.UserTypeBit == nil {
				return "", false
			}
			return strconv.Itoa(*p.UserTypeBit), true
		},
		decode: func(p *Payload, raw string) error {
			bit, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("userTypeBit %q is not an integer", raw)
			}
			p.UserTypeBit = &bit
			return nil
		},
	},
	{
		name: FieldIsLogin,
		encode: func(p *Payload) (string, bool) {
			if p.IsLogin == nil {
				return "", false
			}
			return strconv.FormatBool(*p.IsLogin), true
		},
		decode: func(p *Payload, raw string) error {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("isLogin %q is not a boolean", raw)
			}
			p.IsLogin = &v
			return nil
		},
	},
}

var decoders = func() map[string]fieldCodec {
	m := make(map[string]fieldCodec, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}()

// Serialize encodes p. The result is deterministic.
func Serialize(p Payload) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := f.encode(&p)
		if !ok {
			continue
		}
		parts = append(parts, url.QueryEscape(f.name)+keyValueSep+url.QueryEscape(v))
	}
	return strings.Join(parts, fieldSep)
}

// Deserialize decodes a string produced by Serialize. Unknown fields are
// skipped; empty values decode as absent. An empty string yields the zero
// Payload.
func Deserialize(s string) (Payload, error) {
	var p Payload
	if s == "" {
		return p, nil
	}
	for _, part := range strings.Split(s, fieldSep) {
		if part == "" {
			continue
		}
		rawName, rawValue, ok := strings.Cut(part, keyValueSep)
		if !ok {
			return Payload{}, fmt.Errorf("%w: field %q has no value separator", ErrMalformedState, part)
		}
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: field %s: %v", ErrMalformedState, name, err)
		}
		codec, known := decoders[name]
		if !known || value == "" {
			continue
		}
		if err := codec.decode(&p, value); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
	}
	return p, nil
}

func encodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+paramKVSep+url.QueryEscape(params[k]))
	}
	return strings.Join(pairs, paramSep)
}

func decodeParams(raw string) (map[string]string, error) {
	params := make(map[string]string)
	for _, pair := range strings.Split(raw, paramSep) {
		if pair == "" {
			continue
		}
		rawKey, rawVal, ok := strings.Cut(pair, paramKVSep)
		if !ok {
			return nil, fmt.Errorf("redirect param %q has no value separator", pair)
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("redirect param key: %v", err)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, fmt.Errorf("redirect param %s: %v", key, err)
		}
		params[key] = val
	}
	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}

// Int returns a pointer to v, for building payloads.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for building payloads.
func Bool(v bool) *bool { return &v }
