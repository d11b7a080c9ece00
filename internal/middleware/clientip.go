package middleware

import (
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// ClientIPFunc resolves the address a request originated from.
type ClientIPFunc func(c fiber.Ctx) string

// NewClientIPFunc returns a resolver that prefers the first valid address in
// header (e.g. "CF-Connecting-IP" behind Cloudflare) and falls back to the
// connection's remote address. An empty header disables the lookup.
func NewClientIPFunc(header string) ClientIPFunc {
	header = strings.TrimSpace(header)
	return func(c fiber.Ctx) string {
		if header != "" {
			if ip := firstValidIP(c.Get(header)); ip != "" {
				return ip
			}
		}
		return c.IP()
	}
}

// firstValidIP returns the first entry of a comma-separated address list if
// it parses, with IPv4-mapped IPv6 addresses unmapped.
func firstValidIP(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}
