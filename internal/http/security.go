package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"diarybook/internal/log"
)

// clientIPResolver finds the address a request came from. Forwarding
// headers are only read when the direct peer is a trusted proxy.
type clientIPResolver struct {
	trusted []netip.Prefix
}

// newClientIPResolver parses the trusted proxy ranges. Entries that do not
// parse are logged and skipped.
func newClientIPResolver(cidrs []string, logger *log.Logger) *clientIPResolver {
	c := &clientIPResolver{}
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			logger.Warn("Ignoring trusted proxy range", "cidr", cidr, log.FieldError, err)
			continue
		}
		c.trusted = append(c.trusted, prefix.Masked())
	}
	return c
}

func (c *clientIPResolver) trusts(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the client address of r. Behind trusted proxies it walks
// X-Forwarded-For from the nearest hop outwards and returns the first
// address that is not itself a trusted proxy.
func (c *clientIPResolver) ClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(direct)
	if err != nil || !c.trusts(peer) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		outermost := ""
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			outermost = hop.Unmap().String()
			if !c.trusts(hop) {
				return outermost
			}
		}
		if outermost != "" {
			return outermost
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return direct
}
