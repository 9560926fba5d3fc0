// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from a request, honouring the
// headers set by reverse proxies. X-Forwarded-For may contain a chain of
// addresses; the first entry is the originating client.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return normalizeIP(ip)
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		if first != "" {
			return normalizeIP(first)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalizeIP(r.RemoteAddr)
	}
	return normalizeIP(host)
}

// normalizeIP strips the IPv4-mapped IPv6 prefix (::ffff:192.0.2.1) so
// rate-limit and audit keys are stable across address notations.
func normalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if strings.HasPrefix(ip, "::ffff:") {
		if v4 := net.ParseIP(ip); v4 != nil && v4.To4() != nil {
			return v4.To4().String()
		}
	}
	return ip
}
