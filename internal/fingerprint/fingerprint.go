// Package fingerprint derives stable ETags for evaluated views.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Of returns a quoted ETag for the JSON encoding of v. Equal values always
// produce the same tag; map keys are sorted by encoding/json.
func Of(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return Bytes(data), nil
}

// Bytes returns the quoted ETag of raw bytes.
func Bytes(data []byte) string {
	return strconv.Quote(fmt.Sprintf("%016x", xxhash.Sum64(data)))
}

// Matches reports whether an If-None-Match header value names etag.
func Matches(ifNoneMatch, etag string) bool {
	return ifNoneMatch != "" && (ifNoneMatch == etag || ifNoneMatch == "*" || ifNoneMatch == "W/"+etag)
}
