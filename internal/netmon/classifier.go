// Package netmon lists live network connections and flags the ones going
// to known telemetry and advertising hosts.
package netmon

import (
	"context"
	"net"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// UnknownProcess is reported when a connection's owner cannot be read.
const UnknownProcess = "System/Unknown"

// DefaultSuspectKeywords mark a hostname as telemetry or tracking.
var DefaultSuspectKeywords = []string{
	"telemetry", "vortex", "settings-win", "watson", "g.msn",
	"adnxs", "doubleclick", "scorecardresearch", "adjust", "appsflyer",
}

// Connection states that are reported.
var reportedStates = map[string]bool{
	"ESTABLISHED": true,
	"SYN_SENT":    true,
}

// Classifier turns raw sockets into annotated connection rows.
type Classifier struct {
	lister   domain.ConnectionLister
	procs    domain.ProcessManager
	cache    *HostnameCache
	keywords []string
	logger   *zap.Logger
}

// NewClassifier creates a classifier. An empty keywords list uses the defaults.
func NewClassifier(
	lister domain.ConnectionLister,
	procs domain.ProcessManager,
	cache *HostnameCache,
	keywords []string,
	logger *zap.Logger,
) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultSuspectKeywords
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &Classifier{
		lister:   lister,
		procs:    procs,
		cache:    cache,
		keywords: lower,
		logger:   logger,
	}
}

// IsSuspect reports whether hostname contains a suspect keyword.
func (c *Classifier) IsSuspect(hostname string) bool {
	if hostname == "" {
		return false
	}
	h := strings.ToLower(hostname)
	for _, k := range c.keywords {
		if strings.Contains(h, k) {
			return true
		}
	}
	return false
}

// Scan lists established and connecting sockets with a remote end.
// Suspect connections come first; otherwise the OS order is kept.
func (c *Classifier) Scan(ctx context.Context) ([]domain.NetworkConnection, error) {
	raw, err := c.lister.Connections(ctx)
	if err != nil {
		return nil, err
	}

	procNames := make(map[int]string)
	conns := make([]domain.NetworkConnection, 0, len(raw))
	for _, r := range raw {
		if !reportedStates[r.Status] || r.RemoteIP == "" {
			continue
		}

		name, ok := procNames[r.PID]
		if !ok {
			name = c.processName(ctx, r.PID)
			procNames[r.PID] = name
		}

		hostname := c.cache.Lookup(r.RemoteIP)
		conns = append(conns, domain.NetworkConnection{
			PID:           r.PID,
			ProcessName:   name,
			LocalAddress:  joinAddr(r.LocalIP, r.LocalPort),
			RemoteAddress: joinAddr(r.RemoteIP, r.RemotePort),
			RemoteIP:      r.RemoteIP,
			ConnState:     r.Status,
			Hostname:      hostname,
			IsSuspect:     c.IsSuspect(hostname),
		})
	}

	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].IsSuspect && !conns[j].IsSuspect
	})
	return conns, nil
}

func (c *Classifier) processName(ctx context.Context, pid int) string {
	if pid <= 0 {
		return UnknownProcess
	}
	name, err := c.procs.Name(ctx, pid)
	if err != nil || name == "" {
		c.logger.Debug("process name unavailable", zap.Int("pid", pid), zap.Error(err))
		return UnknownProcess
	}
	return name
}

func joinAddr(ip string, port uint32) string {
	return net.JoinHostPort(ip, strconv.FormatUint(uint64(port), 10))
}
