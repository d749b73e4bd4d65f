package router

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// parseTrustedProxies accepts CIDRs or bare addresses. Bad entries are
// logged and skipped.
func parseTrustedProxies(entries []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("ignoring invalid trusted proxy", "value", e)
	}
	return out
}

func trusted(proxies []netip.Prefix, addr netip.Addr) bool {
	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// middlewareIP rewrites RemoteAddr to the client address. Forwarding headers
// are honoured only when the direct peer is a trusted proxy, and the
// X-Forwarded-For chain is walked from the right so a client cannot spoof
// its own entry.
func middlewareIP(proxies []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r, proxies); ip.IsValid() {
				r.RemoteAddr = ip.String()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, proxies []netip.Prefix) netip.Addr {
	peer := remoteAddr(r.RemoteAddr)
	if !peer.IsValid() || !trusted(proxies, peer) {
		return peer
	}

	if v, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return v.Unmap()
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		hop = hop.Unmap()
		if !trusted(proxies, hop) {
			return hop
		}
	}

	return peer
}

func remoteAddr(v string) netip.Addr {
	host, _, err := net.SplitHostPort(v)
	if err != nil {
		host = v
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return a.Unmap()
}
