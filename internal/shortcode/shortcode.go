// Package shortcode converts share codes to internal media identifiers.
// A share code is the media id written big-endian in a 64-character
// URL-safe alphabet, as used in post URLs.
package shortcode

import (
	"fmt"
	"math"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// maxLen bounds codes to values representable in an int64.
const maxLen = 11

// Decode resolves a share code to its numeric media id.
func Decode(code string) (int64, error) {
	if code == "" {
		return 0, fmt.Errorf("empty shortcode")
	}
	if len(code) > maxLen {
		return 0, fmt.Errorf("shortcode %q too long", code)
	}

	var id int64
	for _, r := range code {
		idx := strings.IndexRune(alphabet, r)
		if idx < 0 {
			return 0, fmt.Errorf("invalid shortcode character %q", r)
		}
		if id > math.MaxInt64>>6 {
			return 0, fmt.Errorf("shortcode %q out of range", code)
		}
		id = id<<6 | int64(idx)
	}
	return id, nil
}

// Encode renders a media id as its share code.
func Encode(id int64) string {
	if id == 0 {
		return string(alphabet[0])
	}
	var out []byte
	for id > 0 {
		out = append([]byte{alphabet[id&0x3f]}, out...)
		id >>= 6
	}
	return string(out)
}
