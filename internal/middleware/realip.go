// Bhashasutra - NLP Toolkit and Retrieval-Augmented Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bhashasutra

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/bhashasutra/internal/logging"
)

// TrustedRealIP applies chi's RealIP only to requests whose peer address is
// one of proxies (IPs or CIDR prefixes). Forwarding headers from any other
// peer are ignored, so limiter keys stay on RemoteAddr.
func TrustedRealIP(proxies []string) func(http.Handler) http.Handler {
	prefixes := parseProxies(proxies)

	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		rewritten := chimiddleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrustedPeer(r.RemoteAddr, prefixes) {
				rewritten.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseProxies(proxies []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				logging.Warn().Str("proxy", p).Msg("Ignoring invalid trusted proxy prefix")
				continue
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			logging.Warn().Str("proxy", p).Msg("Ignoring invalid trusted proxy address")
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}

func isTrustedPeer(remoteAddr string, prefixes []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
