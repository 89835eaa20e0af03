package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

// clientIPHeaders are consulted in order before falling back to RemoteAddr.
var clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}

func resolveClientIP(r *http.Request) string {
	for _, name := range clientIPHeaders {
		// X-Forwarded-For lists the originating client first.
		first, _, _ := strings.Cut(r.Header.Get(name), ",")
		if addr, ok := parseIP(first); ok {
			return addr.String()
		}
	}
	if addr, ok := parseIP(r.RemoteAddr); ok {
		return addr.String()
	}
	return ""
}

func parseIP(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
