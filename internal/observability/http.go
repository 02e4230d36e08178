package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestIdentity is the transport-level identity of one inbound request,
// pulled from headers the edge proxy sets.
type RequestIdentity struct {
	DeviceID  string
	RequestID string
	IP        string
}

// IdentityFromRequest extracts the identity headers. The client IP prefers
// the first X-Forwarded-For hop over the socket peer.
func IdentityFromRequest(r *http.Request) RequestIdentity {
	return RequestIdentity{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        clientIP(r),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
