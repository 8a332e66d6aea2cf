// Package token performs advisory decoding of the backend-minted session
// token. The gateway never verifies the signature; it only reads the expiry
// claim to decide whether to bounce the user back to login. Authorization of
// anything sensitive is enforced again by the backend.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Cookie names the gateway reads tokens from, in precedence order after
// the Authorization header.
const (
	AccessTokenCookie  = "access_token"
	AuthTokenCookie    = "auth_token"
	RefreshTokenCookie = "refresh_token" // cleared on logout, never read
)

// ErrMalformed is returned when the token is not a three-part structure
// with a decodable payload segment.
var ErrMalformed = errors.New("malformed token")

// Claims is the advisory view of the token payload. The payload is
// untrusted and may carry arbitrary extra fields; only exp is required,
// everything else is optional.
type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	Exp     *int64 `json:"exp"`
}

// Decode splits a three-part token and decodes the middle segment as JSON
// claims. The header and signature segments are not inspected at all, so
// tokens with opaque headers still decode. A missing or non-numeric exp
// claim is a decode error; callers treat any error as an expired token.
func Decode(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not JSON: %v", ErrMalformed, err)
	}
	if claims.Exp == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}
	return &claims, nil
}

// decodeSegment decodes a base64 token segment, tolerating both the
// unpadded URL alphabet JWTs use and padded standard encoding.
func decodeSegment(seg string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	if m := len(seg) % 4; m != 0 {
		seg += strings.Repeat("=", 4-m)
	}
	return base64.StdEncoding.DecodeString(seg)
}

// ExpiredAt reports whether the claims are expired at the given Unix
// millisecond timestamp. Expiry is inclusive: a token whose exp equals
// the current second is already expired.
func (c *Claims) ExpiredAt(nowMillis int64) bool {
	return *c.Exp*1000 <= nowMillis
}

// FromRequest extracts the session token from a request. The
// Authorization header takes precedence over cookies; among cookies,
// access_token wins over auth_token. Returns "" when no token is present.
func FromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	for _, name := range []string{AccessTokenCookie, AuthTokenCookie} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}
