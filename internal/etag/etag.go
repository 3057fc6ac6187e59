// Package etag issues and decodes record version tokens. Tokens are opaque
// to callers: clients echo back whatever a read returned, they never build
// their own. A token that does not decode is treated by callers exactly like
// a stale one, so malformed input cannot be used to probe version state.
package etag

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalid is returned for tokens this process never issued.
var ErrInvalid = errors.New("invalid version token")

const prefix = "v"

// Issue encodes a record version as a token, e.g. version 3 -> "v3".
func Issue(version int64) string {
	return prefix + strconv.FormatInt(version, 10)
}

// Decode extracts the version a token encodes. Both bare (v3) and
// HTTP-quoted ("v3") forms are accepted, since If-Match values arrive quoted.
func Decode(token string) (int64, error) {
	token = strings.TrimSpace(token)
	token = strings.Trim(token, `"`)
	if !strings.HasPrefix(token, prefix) {
		return 0, ErrInvalid
	}
	version, err := strconv.ParseInt(token[len(prefix):], 10, 64)
	if err != nil || version < 1 {
		return 0, ErrInvalid
	}
	return version, nil
}
