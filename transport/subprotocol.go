package transport

import "strings"

// BearerToken is an opaque Bearer token carried inside a WebSocket
// subprotocol token. This package never decodes or verifies it — the
// authentication collaborator owns that.
type BearerToken string

// ExtractBearerSubprotocol searches the comma-separated tokens of a
// Sec-WebSocket-Protocol header value for one of the form
// "<prefix>.<base64url-jwt>" and returns the JWT portion as an opaque
// BearerToken. The token is never decoded or verified here.
func ExtractBearerSubprotocol(header, prefix string) (BearerToken, bool) {
	want := prefix + "."
	for _, tok := range strings.Split(header, ",") {
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, want) {
			return BearerToken(tok[len(want):]), true
		}
	}
	return "", false
}
