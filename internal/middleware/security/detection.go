package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"fincal/internal/log"
)

// DetectionMetrics counts flagged requests.
type DetectionMetrics struct {
	Suspicious int64 `json:"suspicious"`
	Blocked    int64 `json:"blocked"`
}

// Detector flags probing requests and resolves the client address.
type Detector struct {
	suspicious     atomic.Int64
	blocked        atomic.Int64
	trustedProxies []*net.IPNet
	logger         *log.Logger
}

// NewDetector trusts forwarding headers from loopback and private ranges.
func NewDetector(logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Nop()
	}
	d := &Detector{logger: logger.WithComponent(log.ComponentSecurity)}
	for _, cidr := range []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		if err := d.AddTrustedProxy(cidr); err != nil {
			panic(err)
		}
	}
	return d
}

// AddTrustedProxy trusts forwarding headers sent from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

var probePatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin", ".git/", ".ssh",
	"<script", "javascript:", "union select", "etc/passwd", "cmd.exe",
}

// Blocked methods are never served.
var blockedMethods = map[string]bool{"TRACE": true, "TRACK": true, "CONNECT": true, "DEBUG": true}

// Suspicious reports whether r looks like a probe: traversal or injection
// markers in the path or query, or an oversized URL.
func (d *Detector) Suspicious(r *http.Request) bool {
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	target := strings.ToLower(r.URL.Path + "?" + query)
	for _, p := range probePatterns {
		if strings.Contains(target, p) {
			return true
		}
	}
	return len(r.URL.String()) > 2048
}

// Middleware rejects blocked methods with 405 and probing requests with
// 400, logging both.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if blockedMethods[r.Method] {
			d.blocked.Add(1)
			d.logger.WarnContext(r.Context(), "blocked HTTP method",
				log.FieldMethod, r.Method, log.FieldClientIP, d.ExtractClientIP(r))
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if d.Suspicious(r) {
			d.suspicious.Add(1)
			d.logger.WarnContext(r.Context(), "suspicious request rejected",
				log.FieldPath, r.URL.Path,
				log.FieldQuery, r.URL.RawQuery,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldUserAgent, r.UserAgent())
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP returns the connecting address, or the first valid
// X-Forwarded-For / X-Real-IP entry when the connection comes from a
// trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	ip := net.ParseIP(direct)
	if ip == nil || !d.isTrustedProxy(ip) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if c := strings.TrimSpace(first); net.ParseIP(c) != nil {
			return c
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return direct
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{Suspicious: d.suspicious.Load(), Blocked: d.blocked.Load()}
}
