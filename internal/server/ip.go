// internal/server/ip.go
package server

import (
	"net"
	"net/http"
	"strings"
)

// ------------------------------------------------------------
// clientIP:
//
// trigger 호출자 IP (로그용).
// 스케줄러 / 내부 cron 이 private 망에서 부르는 경우가 대부분이라
// RemoteAddr 는 private 이어도 그대로 쓴다.
//
// 우선순위:
//  1. X-Forwarded-For → 첫 번째 public IP (프록시 뒤)
//  2. RemoteAddr
// ------------------------------------------------------------
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := parseIP(part); isPublicIP(ip) {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := parseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

// isPublicIP 는 private / loopback / link-local 이 아니면 true.
func isPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast()
}

func parseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return net.ParseIP(s)
}
