package netmon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/tevino/abool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// Resolver pool defaults.
const (
	DefaultResolverWorkers = 5
	resolveQueueSize       = 256
	resolveTimeout         = 5 * time.Second
)

var (
	cacheHits   = metrics.GetOrCreateCounter("privguard_hostname_cache_hits_total")
	cacheMisses = metrics.GetOrCreateCounter("privguard_hostname_cache_misses_total")
)

// HostnameCache resolves remote IPs in the background on a fixed pool.
// A lookup never blocks: a miss returns "" and queues the IP, and the name
// shows up on a later lookup. Entries are written once; a failed
// resolution caches the IP itself.
type HostnameCache struct {
	mu      sync.Mutex // Guards names and pending, and sends on jobs
	names   map[string]string
	pending map[string]bool

	jobs     chan string
	workers  errgroup.Group
	closed   *abool.AtomicBool
	resolver domain.HostnameResolver
	logger   *zap.Logger
}

// NewHostnameCache starts workers resolver goroutines.
func NewHostnameCache(resolver domain.HostnameResolver, workers int, logger *zap.Logger) *HostnameCache {
	if workers <= 0 {
		workers = DefaultResolverWorkers
	}
	c := &HostnameCache{
		names:    make(map[string]string),
		pending:  make(map[string]bool),
		jobs:     make(chan string, resolveQueueSize),
		closed:   abool.New(),
		resolver: resolver,
		logger:   logger,
	}
	for i := 0; i < workers; i++ {
		c.workers.Go(func() error {
			for ip := range c.jobs {
				c.resolve(ip)
			}
			return nil
		})
	}
	return c
}

// Lookup returns the cached hostname of ip, or "" after queueing a resolution.
func (c *HostnameCache) Lookup(ip string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name, ok := c.names[ip]; ok {
		cacheHits.Inc()
		return name
	}
	cacheMisses.Inc()
	if c.pending[ip] || c.closed.IsSet() {
		return ""
	}

	select {
	case c.jobs <- ip:
		c.pending[ip] = true
	default:
		// Queue full; the next lookup tries again
		c.logger.Debug("resolver queue full", zap.String("ip", ip))
	}
	return ""
}

func (c *HostnameCache) resolve(ip string) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	host := ip
	names, err := c.resolver.LookupAddr(ctx, ip)
	if err == nil && len(names) > 0 && names[0] != "" {
		host = strings.TrimSuffix(names[0], ".")
	} else {
		c.logger.Debug("reverse lookup failed", zap.String("ip", ip), zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.names[ip]; !ok {
		c.names[ip] = host
	}
	delete(c.pending, ip)
}

// Len returns the number of resolved entries.
func (c *HostnameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// Close stops accepting lookups and waits for queued resolutions.
func (c *HostnameCache) Close() {
	c.mu.Lock()
	if c.closed.SetToIf(false, true) {
		close(c.jobs)
	}
	c.mu.Unlock()

	_ = c.workers.Wait()
}
