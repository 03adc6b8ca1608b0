// Package memo caches API reads under keys derived from their request
// parameters. Entries live as long as the backend does; there is no TTL and
// no eviction.
package memo

import (
	"encoding/json"
	"fmt"
)

// MakeKey renders params as a JSON array. Equal argument lists always give
// the same key; argument order matters. Map keys are emitted sorted.
func MakeKey(params ...any) string {
	if params == nil {
		params = []any{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		// Only unencodable values (funcs, channels) get here.
		return fmt.Sprintf("%#v", params)
	}
	return string(b)
}

// Key is a composite cache key. Build it with NewKey rather than by
// concatenating strings.
type Key struct {
	s string
}

// NewKey builds a key from request parameters.
func NewKey(params ...any) Key {
	return Key{s: MakeKey(params...)}
}

func (k Key) String() string { return k.s }
