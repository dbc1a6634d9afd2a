package openai

import (
	"strings"
	"sync/atomic"
)

// KeyRing rotates API keys round-robin. Safe for concurrent use.
type KeyRing struct {
	keys []string
	next atomic.Uint64
}

// NewKeyRing drops blank and duplicate keys, keeping order.
func NewKeyRing(keys ...string) *KeyRing {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return &KeyRing{keys: out}
}

// Next returns the key for the next call, or "" when the ring is empty.
func (r *KeyRing) Next() string {
	if len(r.keys) == 0 {
		return ""
	}
	i := r.next.Add(1) - 1
	return r.keys[i%uint64(len(r.keys))]
}

func (r *KeyRing) Len() int { return len(r.keys) }

// Keys returns a copy of the configured keys.
func (r *KeyRing) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}
