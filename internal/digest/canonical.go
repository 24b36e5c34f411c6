// Package digest provides the canonical JSON serialization and content
// hashing shared by the compiler's tool fingerprints and the capability
// introspector's contract digests.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Canonicalize converts v into a canonical JSON byte form: object keys
// sorted, no insignificant whitespace, and null-valued object members
// dropped (null array elements are kept and written as null). It is used
// everywhere a deterministic digest or byte-identical serialization is
// required (spec.md §4.2, §4.4).
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var buf []byte
	buf = appendCanonical(buf, generic)
	return buf, nil
}

func appendCanonical(buf []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		// Null object members are skipped by the map case below; a null
		// array element or a bare top-level null canonicalizes to the literal.
		return append(buf, "null"...)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k, fv := range val {
			if fv == nil {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = appendCanonical(buf, val[k])
		}
		buf = append(buf, '}')
		return buf
	case []any:
		buf = append(buf, '[')
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendCanonical(buf, item)
		}
		buf = append(buf, ']')
		return buf
	default:
		b, _ := json.Marshal(val)
		return append(buf, b...)
	}
}

// Sum returns the hex-encoded SHA-256 digest of v's canonical serialization.
func Sum(v any) (string, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// MustSum is Sum but panics on marshal failure. Only safe for values whose
// shape is controlled by this codebase (never raw external input).
func MustSum(v any) string {
	s, err := Sum(v)
	if err != nil {
		panic(err)
	}
	return s
}
