// Package hmac implements the request signing scheme: deterministic
// canonicalization of request parameters and HMAC-SHA256 digest computation
// and verification over the canonical bytes.
package hmac

import (
	"fmt"
	"sort"
)

// Canonicalize serializes an unordered parameter set into a deterministic
// byte sequence for hashing. Parameter names are sorted lexicographically and
// each name and value is encoded as a netstring (<length>:<bytes>,). The
// length prefix removes separator ambiguity: {"ab":"c"} and {"a":"bc"}
// canonicalize to different byte sequences.
//
// An empty parameter set canonicalizes to an empty byte slice.
func Canonicalize(params map[string]string) []byte {
	if len(params) == 0 {
		return []byte{}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []byte
	for _, name := range names {
		out = appendNetstring(out, name)
		out = appendNetstring(out, params[name])
	}
	return out
}

func appendNetstring(dst []byte, s string) []byte {
	dst = append(dst, fmt.Sprintf("%d:", len(s))...)
	dst = append(dst, s...)
	return append(dst, ',')
}
