package infra

import (
	"context"
	"net"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// DNSResolver performs reverse lookups with the system resolver.
type DNSResolver struct {
	resolver *net.Resolver
}

// NewHostnameResolver returns a resolver backed by net.DefaultResolver.
func NewHostnameResolver() domain.HostnameResolver {
	return &DNSResolver{resolver: net.DefaultResolver}
}

// LookupAddr returns the PTR names for ip.
func (r *DNSResolver) LookupAddr(ctx context.Context, ip string) ([]string, error) {
	return r.resolver.LookupAddr(ctx, ip)
}

var _ domain.HostnameResolver = (*DNSResolver)(nil)
